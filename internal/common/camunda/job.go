package camunda

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// CompleteJob completes job with output serialized as process variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("build complete command for job %d: %w", job.GetKey(), err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("complete job %d: %w", job.GetKey(), err)
	}
	return nil
}

// DecodeVariables unmarshals the job variables into dst.
func DecodeVariables(job entities.Job, dst interface{}) error {
	return json.Unmarshal([]byte(job.GetVariables()), dst)
}
