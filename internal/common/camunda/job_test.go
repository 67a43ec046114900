package camunda

import (
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeVariables(t *testing.T) {
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       7,
		Variables: `{"sessionId":"s-1","maxItems":3,"ignored":true}`,
	}}

	var dst struct {
		SessionID string `json:"sessionId"`
		MaxItems  int    `json:"maxItems"`
	}
	require.NoError(t, DecodeVariables(job, &dst))
	assert.Equal(t, "s-1", dst.SessionID)
	assert.Equal(t, 3, dst.MaxItems)
}

func TestDecodeVariables_Malformed(t *testing.T) {
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Variables: `{"sessionId":`}}

	var dst map[string]interface{}
	assert.Error(t, DecodeVariables(job, &dst))
}
