package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input   string
		want    Command
		wantErr bool
	}{
		{input: "backup", want: Backup},
		{input: "RESTORE", want: Restore},
		{input: "  Delete\n", want: Delete},
		{input: "", wantErr: true},
		{input: "remove", wantErr: true},
		{input: "backup now", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCommand(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCommand)
				assert.True(t, IsRejection(err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandString(t *testing.T) {
	for _, c := range Commands {
		parsed, err := ParseCommand(c.String())
		assert.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	assert.Equal(t, "Command(0)", Command(0).String())
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "original", TargetOriginal.String())
	assert.Equal(t, "backup", TargetBackup.String())
}
