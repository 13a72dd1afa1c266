package runexec

// ProcessStatus is the decoded form of a subprocess's raw wait status.
// The original run executor documents its raw return value as a
// 16-bit int: the low 7 bits carry the terminating signal, the high
// byte carries the real exit code (§ SPEC_FULL "Supplemented
// features" item 3). This type models the same information without
// exposing the bit-packed encoding to callers.
type ProcessStatus struct {
	ExitCode int
	Signal   *int // nil if the process exited normally
}

// Encode16 reproduces the original's 16-bit return-value layout, used
// when writing the remote stdOut sidecar's Returnvalue field (§6.3)
// so a consumer written against that format sees the same encoding.
func (p ProcessStatus) Encode16() int {
	signal := 0
	if p.Signal != nil {
		signal = *p.Signal & 0x7f
	}
	return (p.ExitCode&0xff)<<8 | signal
}

// DecodeEncoded16 inverts Encode16, used when parsing a
// Returnvalue field read back from a remote stdOut sidecar.
func DecodeEncoded16(raw int) ProcessStatus {
	signal := raw & 0x7f
	exitCode := (raw >> 8) & 0xff
	if signal == 0 {
		return ProcessStatus{ExitCode: exitCode}
	}
	return ProcessStatus{ExitCode: exitCode, Signal: &signal}
}
