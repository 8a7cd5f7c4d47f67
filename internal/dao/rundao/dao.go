// Package rundao records deployment runs in DynamoDB so operators can answer
// "who deployed what into this environment, and when". One record per
// invocation of the deploy pipeline.
package rundao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/savaki/ddb/v2"
	"github.com/segmentio/ksuid"
)

// PK represents a partition key in format {base}/{env}, e.g.
// mlops-platform/dev.
type PK string

// NewPK creates a partition key from the platform base name and environment.
func NewPK(base, env string) PK {
	return PK(fmt.Sprintf("%s/%s", base, env))
}

// ParsePK splits a partition key into base name and environment.
func ParsePK(pk PK) (base, env string, err error) {
	parts := strings.Split(string(pk), "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid PK format: %s, expected {base}/{env}", pk)
	}
	return parts[0], parts[1], nil
}

func (pk PK) String() string { return string(pk) }

// RunStatus is the terminal or in-flight state of a deployment run.
type RunStatus string

const (
	RunStatusInProgress RunStatus = "IN_PROGRESS"
	RunStatusSuccess    RunStatus = "SUCCESS"
	RunStatusFailed     RunStatus = "FAILED"
)

// Record is one deployment run. KSUIDs sort chronologically, so a descending
// scan of the sort key yields most-recent-first.
type Record struct {
	PK          PK        `ddb:"hash" dynamodbav:"pk"`
	SK          string    `ddb:"range" dynamodbav:"sk"` // KSUID
	Env         string    `dynamodbav:"env,omitempty"`
	AccountID   string    `dynamodbav:"account_id,omitempty"`
	Region      string    `dynamodbav:"region,omitempty"`
	Quick       bool      `dynamodbav:"quick,omitempty"`
	Status      RunStatus `dynamodbav:"status,omitempty"`
	APIEndpoint string    `dynamodbav:"api_endpoint,omitempty"`
	DataBucket  string    `dynamodbav:"data_bucket,omitempty"`
	Dataset     string    `dynamodbav:"dataset,omitempty"`
	CICD        string    `dynamodbav:"cicd,omitempty"`     // deployed stack name or "Not deployed"
	Frontend    string    `dynamodbav:"frontend,omitempty"` // deployed app URL or "Not deployed"
	ErrorMsg    *string   `dynamodbav:"error_msg,omitempty"`
	StartedAt   int64     `dynamodbav:"started_at,omitempty"`
	FinishedAt  *int64    `dynamodbav:"finished_at,omitempty"`
}

// NewSK returns a fresh KSUID sort key.
func NewSK() string {
	return ksuid.New().String()
}

// CreateInput contains the fields known at the start of a run.
type CreateInput struct {
	Base      string
	Env       string
	SK        string
	AccountID string
	Region    string
	Quick     bool
}

// FinishInput carries the terminal state of a run.
type FinishInput struct {
	PK          PK
	SK          string
	Status      RunStatus
	APIEndpoint string
	DataBucket  string
	Dataset     string
	CICD        string
	Frontend    string
	ErrorMsg    *string
}

// DAO provides data access operations for run records.
type DAO struct {
	db    *ddb.DDB
	table *ddb.Table
}

// New creates a DAO against the given table.
func New(client *dynamodb.Client, tableName string) *DAO {
	db := ddb.New(client)
	table := db.MustTable(tableName, &Record{})
	return &DAO{db: db, table: table}
}

// Create writes the initial IN_PROGRESS record for a run.
func (d *DAO) Create(ctx context.Context, input CreateInput) (Record, error) {
	record := Record{
		PK:        NewPK(input.Base, input.Env),
		SK:        input.SK,
		Env:       input.Env,
		AccountID: input.AccountID,
		Region:    input.Region,
		Quick:     input.Quick,
		Status:    RunStatusInProgress,
		StartedAt: time.Now().Unix(),
	}

	if err := d.table.Put(&record).RunWithContext(ctx); err != nil {
		return Record{}, fmt.Errorf("failed to create run record: %w", err)
	}
	return record, nil
}

// Finish updates a run record with its terminal status and resolved values.
func (d *DAO) Finish(ctx context.Context, input FinishInput) error {
	now := time.Now().Unix()

	update := d.table.Update(input.PK).
		Range(input.SK).
		Set("#Status = ?", string(input.Status)).
		Set("#FinishedAt = ?", now)

	if input.APIEndpoint != "" {
		update = update.Set("#APIEndpoint = ?", input.APIEndpoint)
	}
	if input.DataBucket != "" {
		update = update.Set("#DataBucket = ?", input.DataBucket)
	}
	if input.Dataset != "" {
		update = update.Set("#Dataset = ?", input.Dataset)
	}
	if input.CICD != "" {
		update = update.Set("#CICD = ?", input.CICD)
	}
	if input.Frontend != "" {
		update = update.Set("#Frontend = ?", input.Frontend)
	}
	if input.ErrorMsg != nil {
		update = update.Set("#ErrorMsg = ?", *input.ErrorMsg)
	}

	if err := update.RunWithContext(ctx); err != nil {
		return fmt.Errorf("failed to finish run record: %w", err)
	}
	return nil
}

// Query returns all runs for a partition key.
func (d *DAO) Query(ctx context.Context, pk PK) ([]Record, error) {
	var records []Record
	err := d.table.Query("#PK = ?", pk.String()).
		FindAllWithContext(ctx, &records)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return records, nil
}
