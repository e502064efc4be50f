package deploy

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"nudeploy/internal/result"
	"nudeploy/services"
)

func TestPrintOutcome_CauseChain(t *testing.T) {
	color.NoColor = true
	script := result.NewFailure("exited with code 3").WithCause(result.NewFailure("disk full"))
	outcome := &services.RunOutcome{
		RunId:    "run-1",
		Result:   result.NewFailure("install script of 'Acme.Web.1.0.0' failed").WithCause(script),
		Duration: 1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	printOutcome(&buf, outcome.Response())

	assert.Equal(t, "Failure install script of 'Acme.Web.1.0.0' failed\n"+
		"  caused by: exited with code 3\n"+
		"    caused by: disk full\n"+
		"run run-1, 1.5s\n", buf.String())
}

func TestOutcomeError(t *testing.T) {
	tests := []struct {
		name    string
		res     *result.Result
		wantErr bool
	}{
		{"success", result.NewSuccess("installed").WithArtefact("Acme.Web.1.0.0"), false},
		{"nothing to do", result.NewNoResult("nothing to clean up"), false},
		{"not required", result.NewFailure("installation of 'Acme.Web.1.0.0' not required"), false},
		{"failure", result.NewFailure("extraction of 'Acme.Web.1.0.0' failed"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := &services.RunOutcome{Result: tt.res}
			err := outcomeError("install", outcome.Response())
			if tt.wantErr {
				assert.ErrorContains(t, err, "install failed: extraction")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
