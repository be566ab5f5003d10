//go:build unix

package health

import (
	"os"
	"os/exec"
	"testing"
	"time"
)

func TestSystemCheckSelf(t *testing.T) {
	c := NewSystem()
	pid := os.Getpid()

	h := c.Check(&pid)
	if !h.Exists {
		t.Fatal("own process should exist")
	}
	if !h.Running {
		t.Error("own process should be running")
	}
	if h.IsZombie {
		t.Error("own process should not be a zombie")
	}
}

func TestSystemCheckMissingProcess(t *testing.T) {
	c := NewSystem()

	// Spawn a short-lived child and reap it; its pid is then known to
	// be gone (pid reuse inside a test run is vanishingly unlikely).
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start helper process: %v", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Wait(); err != nil {
		t.Fatalf("helper process failed: %v", err)
	}

	h := c.Check(&pid)
	if h.Exists {
		t.Errorf("reaped process should not exist: %+v", h)
	}
	if h.Reason != ReasonNotFound {
		t.Errorf("reason = %q, want %q", h.Reason, ReasonNotFound)
	}
}

func TestSystemCheckZombie(t *testing.T) {
	if _, err := os.Stat("/proc"); err != nil {
		t.Skip("no procfs on this platform")
	}

	c := NewSystem()

	// An exited-but-unreaped child is a zombie until Wait is called.
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start helper process: %v", err)
	}
	pid := cmd.Process.Pid
	defer cmd.Wait()

	deadline := time.Now().Add(5 * time.Second)
	for {
		h := c.Check(&pid)
		if h.IsZombie {
			if h.Running {
				t.Error("zombie should not report running")
			}
			if h.Reason != ReasonZombie {
				t.Errorf("reason = %q, want %q", h.Reason, ReasonZombie)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("child never became a zombie: %+v", h)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSystemKillMissingProcessSucceeds(t *testing.T) {
	c := NewSystem()

	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start helper process: %v", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Wait(); err != nil {
		t.Fatalf("helper process failed: %v", err)
	}

	if !c.Kill(pid) {
		t.Error("killing an already-gone process should count as success")
	}
}

func TestSystemKillRunningProcess(t *testing.T) {
	c := NewSystem()

	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start helper process: %v", err)
	}
	pid := cmd.Process.Pid

	if !c.Kill(pid) {
		t.Error("killing a live child should succeed")
	}
	cmd.Wait()
}
