package audit

import (
	"os"
	"path/filepath"
	"testing"
)

func FuzzVerify(f *testing.F) {
	valid := filepath.Join(f.TempDir(), "valid.jsonl")
	l, err := Open(valid)
	if err != nil {
		f.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		l.RecordSwap(ActionExecuted, record("s", "a", "b", "char_a.02001", "chest"))
	}
	l.Close()
	data, _ := os.ReadFile(valid)

	f.Add(data)
	f.Add([]byte{})
	f.Add([]byte(`{"seq":1,"prev":"sha256:00"}` + "\n"))
	f.Add([]byte("not json"))

	f.Fuzz(func(t *testing.T, data []byte) {
		path := filepath.Join(t.TempDir(), "fuzz.jsonl")
		os.WriteFile(path, data, 0o600)
		rep := Verify(path)
		if rep.Intact && rep.BrokenAt != 0 {
			t.Errorf("intact report with a break: %+v", rep)
		}
		Replay(path, Filter{})
	})
}
