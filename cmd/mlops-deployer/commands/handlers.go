package commands

import (
	"fmt"

	"github.com/careops/mlops-deployer/internal/config"
)

// handler describes one platform Lambda: its source file and the short name
// used in the function's resource name.
type handler struct {
	Short string
	File  string
}

// platformHandlers are the Lambda functions the infrastructure stack creates.
// Each ships as a single source file.
var platformHandlers = []handler{
	{Short: "patient", File: "patient_handler.py"},
	{Short: "medication", File: "medication_handler.py"},
	{Short: "dashboard", File: "dashboard_handler.py"},
	{Short: "training", File: "training_handler.py"},
	{Short: "inference", File: "inference_handler.py"},
	{Short: "genai", File: "genai_handler.py"},
	{Short: "prediction-workflow", File: "prediction_workflow_handler.py"},
}

// functionName returns the deployed Lambda function name for a handler, e.g.
// mlops-platform-patient-dev.
func functionName(cfg *config.Config, short string) string {
	return fmt.Sprintf("%s-%s-%s", cfg.BaseName, short, cfg.Env)
}

func findHandler(short string) (handler, bool) {
	for _, h := range platformHandlers {
		if h.Short == short {
			return h, true
		}
	}
	return handler{}, false
}
