package deploy

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"nudeploy/internal/config"
	"nudeploy/internal/models"
	"nudeploy/internal/result"
	"nudeploy/services"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
	neutralColor = color.New(color.FgYellow)
	causeColor   = color.New(color.FgHiBlack)
)

/**
 * Print a pipeline outcome with its cause chain
 * @param {io.Writer} out - Destination
 * @param {models.ResultResponse} resp - Outcome to print
 * @description
 * - The first line is the status and message of the outermost result
 * - Each cause follows on its own line, indented one level deeper
 */
func printOutcome(out io.Writer, resp models.ResultResponse) {
	fmt.Fprintf(out, "%s %s\n", statusColor(resp.Status).Sprint(resp.Status), resp.Message)
	for depth, cause := range resp.Causes {
		fmt.Fprintf(out, "%scaused by: %s\n", strings.Repeat("  ", depth+1), cause)
	}
	causeColor.Fprintf(out, "run %s, %s\n", resp.RunId, resp.Duration)
}

func statusColor(status string) *color.Color {
	switch status {
	case result.Success.String():
		return successColor
	case result.Failure.String():
		return failureColor
	default:
		return neutralColor
	}
}

// outcomeError maps a Failure to a non-zero exit; a skipped install is not an error
func outcomeError(operation string, resp models.ResultResponse) error {
	if resp.Status != result.Failure.String() || resp.Skipped {
		return nil
	}
	return fmt.Errorf("%s failed: %s", operation, resp.Message)
}

// pushMetrics hands the run counters to the configured Pushgateway
func pushMetrics() {
	m := config.App().Metrics
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = services.PushMetrics(ctx, m.Pushgateway, m.Job)
}
