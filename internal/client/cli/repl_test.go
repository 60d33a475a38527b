package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	unlocked bool

	calls []string
}

func (f *fakeExec) isUnlocked() bool { return f.unlocked }
func (f *fakeExec) Register(ctx context.Context) error {
	f.calls = append(f.calls, "register")
	return nil
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	return nil
}
func (f *fakeExec) Unlock(ctx context.Context) error {
	f.calls = append(f.calls, "unlock")
	f.unlocked = true
	return nil
}
func (f *fakeExec) Lock(ctx context.Context) error {
	f.calls = append(f.calls, "lock")
	f.unlocked = false
	return nil
}
func (f *fakeExec) Status(ctx context.Context) error {
	f.calls = append(f.calls, "status")
	return nil
}
func (f *fakeExec) Seal(ctx context.Context) error {
	f.calls = append(f.calls, "seal")
	return nil
}
func (f *fakeExec) Open(ctx context.Context) error {
	f.calls = append(f.calls, "open")
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.unlocked = false
	return nil
}

func silencePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, 0, len(a))
		for _, v := range a {
			if s, ok := v.(string); ok {
				parts = append(parts, s)
			}
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_UnlockFlowAndCommands(t *testing.T) {
	silencePrintln(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"register",
		"login",
		"unlock",
		"help",
		"seal",
		"open",
		"status",
		"lock",
		"foobar",
		"logout",
		"exit",
	}, "\n"))

	exec := &fakeExec{}

	runREPL(context.Background(), exec, func() string { return "status" }, bufio.NewReader(input))

	want := []string{"register", "login", "unlock", "seal", "open", "status", "lock", "logout"}
	if strings.Join(exec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("commands mismatch: got %v, want %v", exec.calls, want)
	}
}

func TestRunREPL_HelpDependsOnLockState(t *testing.T) {
	lines := silencePrintln(t)

	runREPL(context.Background(), &fakeExec{}, func() string { return "" }, bufio.NewReader(strings.NewReader("help\nquit\n")))
	if !containsLine(*lines, "register, login, unlock") {
		t.Fatalf("locked help not shown: %v", *lines)
	}

	*lines = nil
	runREPL(context.Background(), &fakeExec{unlocked: true}, func() string { return "" }, bufio.NewReader(strings.NewReader("help\nquit\n")))
	if !containsLine(*lines, "seal, open, lock") {
		t.Fatalf("unlocked help not shown: %v", *lines)
	}
}

func TestRunREPL_UnknownAndEOF(t *testing.T) {
	lines := silencePrintln(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("\nfoobar")))

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
	if !containsLine(*lines, "Unknown command: foobar") {
		t.Fatalf("unknown command not reported: %v", *lines)
	}
}

func TestRunREPL_StopsWhenContextDone(t *testing.T) {
	silencePrintln(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "" }, bufio.NewReader(strings.NewReader("register\n")))
	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}

func containsLine(lines []string, sub string) bool {
	for _, l := range lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}
