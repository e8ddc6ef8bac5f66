// Package session drives one FrameScribe run from URL prompt to finished PDF.
//
// An Orchestrator walks an explicit state machine:
//
//	AwaitingInput -> Downloading -> ExtractingTranscript -> EstimatingFrames
//	  -> ConfirmingInterval -> SamplingFrames -> BuildingPdf -> [Compressing]
//	  -> CleaningUp -> Done | Failed | Cancelled
//
// Every user interaction goes through the Prompter interface, so tests drive
// whole runs with scripted answers. Each non-prompt state executes through
// stageexec, which supplies structured start/finish logging and stage timing.
//
// Fatal errors jump to CleaningUp and then Failed; the working directory is
// removed on every path and an output folder left empty is removed too.
// Transcript, compression and cleanup problems are collected as notices on the
// Report and never fail the run. History, metrics, notifications and folder
// reveal run after the terminal state and only log their own failures.
package session
