package engine

import (
	"reflect"
	"testing"

	"evalbox/internal/sandbox/spec"
)

func TestLaunchArgv(t *testing.T) {
	direct := launchArgv(spec.LaunchRequest{Args: []string{"echo", "hi"}})
	if !reflect.DeepEqual(direct, []string{"echo", "hi"}) {
		t.Fatalf("direct argv = %v", direct)
	}

	shell := launchArgv(spec.LaunchRequest{Args: []string{"echo hi", ">", "f"}, Shell: true})
	want := []string{"/bin/sh", "-c", "echo hi > f"}
	if !reflect.DeepEqual(shell, want) {
		t.Fatalf("shell argv = %v, want %v", shell, want)
	}
}
