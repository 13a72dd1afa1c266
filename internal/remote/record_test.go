package remote

import "testing"

func TestEncodeDecodeRecord_RoundTrip(t *testing.T) {
	r := Record{
		Args:           []string{"/usr/bin/mytool", "--verbose", "task.c"},
		Env:            map[string]string{"FOO": "bar"},
		MemoryLimitMB:  2000,
		HardTimeLimitS: 900,
		Cores:          2,
		OutputFileName: "task.c.log",
	}
	line, err := EncodeRecord(r)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}

	decoded, err := DecodeRecord(line)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if len(decoded.Args) != len(r.Args) {
		t.Fatalf("Args = %v, want %v", decoded.Args, r.Args)
	}
	for i := range r.Args {
		if decoded.Args[i] != r.Args[i] {
			t.Errorf("Args[%d] = %q, want %q", i, decoded.Args[i], r.Args[i])
		}
	}
	if decoded.Env["FOO"] != "bar" {
		t.Errorf("Env[FOO] = %q, want bar", decoded.Env["FOO"])
	}
	if decoded.MemoryLimitMB != 2000 || decoded.HardTimeLimitS != 900 || decoded.Cores != 2 {
		t.Errorf("limits = %+v", decoded)
	}
	if decoded.OutputFileName != "task.c.log" {
		t.Errorf("OutputFileName = %q", decoded.OutputFileName)
	}
}

func TestEncodeRecord_UnsetLimitsRoundTripToZero(t *testing.T) {
	r := Record{Args: []string{"/bin/true"}, OutputFileName: "x.log"}
	line, err := EncodeRecord(r)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	decoded, err := DecodeRecord(line)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if decoded.MemoryLimitMB != 0 || decoded.HardTimeLimitS != 0 || decoded.Cores != 0 {
		t.Errorf("expected unset limits to decode to 0, got %+v", decoded)
	}
}

func TestEncodeRecord_RejectsTabInArg(t *testing.T) {
	r := Record{Args: []string{"/bin/true", "arg\twith\ttab"}, OutputFileName: "x.log"}
	if _, err := EncodeRecord(r); err == nil {
		t.Error("expected an error for an argument containing a tab")
	}
}

func TestEncodeRecord_RejectsNewlineInEnv(t *testing.T) {
	r := Record{Args: []string{"/bin/true"}, Env: map[string]string{"FOO": "line1\nline2"}, OutputFileName: "x.log"}
	if _, err := EncodeRecord(r); err == nil {
		t.Error("expected an error for an env value containing a newline")
	}
}

func TestDecodeRecord_RejectsMalformedLine(t *testing.T) {
	if _, err := DecodeRecord("not enough fields"); err == nil {
		t.Error("expected an error for a line with too few fields")
	}
}
