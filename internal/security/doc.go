// Package security derives a read-only posture report from the resolved
// engine configuration, flagging settings weaker than the shipped defaults.
package security
