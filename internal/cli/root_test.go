package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "crmdedup", cmd.Use)
	assert.Contains(t, cmd.Long, "master record")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"migrate"}, {"scan"}, {"check"}, {"import"}, {"merge"}, {"worker"},
		{"enqueue", "scan"}, {"enqueue", "merge"},
		{"reports", "list"}, {"reports", "cleanup"}, {"history"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	levelFlag := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, levelFlag)
	assert.Equal(t, "", levelFlag.DefValue)
}

func TestMergeCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	mergeCmd, _, err := cmd.Find([]string{"merge"})
	require.NoError(t, err)

	for _, name := range []string{"tenant", "type", "master", "duplicates"} {
		assert.NotNil(t, mergeCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "customers", mergeCmd.Flags().Lookup("type").DefValue)
}

func TestScanCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	scanCmd, _, err := cmd.Find([]string{"scan"})
	require.NoError(t, err)

	reportFlag := scanCmd.Flags().Lookup("report")
	require.NotNil(t, reportFlag)
	assert.Equal(t, "", reportFlag.DefValue)
}

func TestWorkerCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	workerCmd, _, err := cmd.Find([]string{"worker"})
	require.NoError(t, err)

	assert.Equal(t, ":9090", workerCmd.Flags().Lookup("metrics-addr").DefValue)
	assert.Equal(t, "true", workerCmd.Flags().Lookup("cleanup-reports").DefValue)
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "migrate"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScanRejectsBadTenantBeforeConnecting(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--format", "json", "scan", "customers", "--tenant", "not-a-uuid"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), `"code":"BAD_REQUEST"`)
}

func TestScanRequiresTenant(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"scan", "customers"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant")
}
