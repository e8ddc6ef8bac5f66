// Package notifications pushes run outcomes to ntfy.
//
// The ntfy implementation posts to the topic URL configured in config.toml and
// degrades to a no-op when no topic is set. Session code depends only on the
// Service interface.
package notifications
