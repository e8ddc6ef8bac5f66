package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	s := NewProgressSampler(0)
	if s.bucketSize != 10 {
		t.Fatalf("bucketSize = %v, want 10", s.bucketSize)
	}
	if s.lastBucket != -1 {
		t.Fatalf("lastBucket = %d, want -1", s.lastBucket)
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "sampling") {
		t.Fatal("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(25)
	if !s.ShouldLog(0, "sampling") {
		t.Fatal("first event should log")
	}
	if s.ShouldLog(10, "sampling") {
		t.Fatal("same bucket should not log")
	}
	if !s.ShouldLog(26, "sampling") {
		t.Fatal("new bucket should log")
	}
	if !s.ShouldLog(5, "compressing") {
		t.Fatal("stage change should log")
	}
	if !s.ShouldLog(150, "compressing") {
		t.Fatal("completion should log")
	}
	if s.ShouldLog(100, "compressing") {
		t.Fatal("repeated completion should not log")
	}
	s.Reset()
	if !s.ShouldLog(0, "compressing") {
		t.Fatal("reset sampler should log again")
	}
}
