package cli

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestUsageErrors_ShowHelp(t *testing.T) {
	t.Parallel()
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"guide", "--unknown-flag"}, "unknown flag"},
		{[]string{"scaffold", "--unknown-flag"}, "unknown flag"},
		{[]string{"endpoints", "--unknown-flag"}, "unknown flag"},
		{[]string{"list", "--unknown-flag"}, "unknown flag"},
		{[]string{"init", "--unknown-flag"}, "unknown flag"},
		{[]string{"guide", "--alternatives", "many"}, "invalid argument"},
	}
	for _, tc := range cases {
		root := NewRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs(tc.args)

		err := root.Execute()
		if !errors.Is(err, ErrUsage) {
			t.Fatalf("%v: expected usage error, got %T: %v", tc.args, err, err)
		}
		if !strings.Contains(err.Error(), tc.want) || !strings.Contains(err.Error(), "Usage:") {
			t.Fatalf("%v: unexpected error text: %v", tc.args, err)
		}
	}
}

func TestStoreCommands_RequireSlug(t *testing.T) {
	t.Parallel()
	for _, sub := range []string{"show", "delete"} {
		root := NewRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs([]string{sub, "--store-dir", t.TempDir()})
		if err := root.Execute(); err == nil {
			t.Fatalf("%s: expected error without a slug", sub)
		}
	}
}
