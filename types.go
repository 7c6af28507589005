package sawmill

// Status is the lifecycle state of a process execution.
type Status string

const (
	StatusInProgress Status = "IN PROGRESS"
	StatusSuccess    Status = "SUCCESS"
	StatusFailure    Status = "FAILURE"
)

// Environment identifies the deployment stage a record is produced in.
// Resolved once from configuration when the Reporter is constructed.
type Environment string

const (
	EnvDev  Environment = "DEV"
	EnvTest Environment = "TEST"
	EnvProd Environment = "PROD"
)

// Record holds the telemetry state of one process execution. Field names
// mirror the ingestion table schema; nullable columns are pointers so the
// wire format distinguishes "not set" from empty.
//
// A Record is mutated through the Reporter's lifecycle methods and should
// not be modified after the terminal Log call has shipped it.
type Record struct {
	TimeGenerated    *string        `json:"time_generated"`
	ProcessName      *string        `json:"process_name"`
	ExecutionID      *string        `json:"execution_id"`
	Environment      Environment    `json:"environment"`
	Status           Status         `json:"status"`
	StartTime        *string        `json:"start_time"`
	EndTime          *string        `json:"end_time"`
	ErrorMessage     []string       `json:"error_message"`
	MlflowURL        *string        `json:"mlflow_url"`
	ExecutionDetails map[string]any `json:"execution_details"`
}

func newRecord(env Environment) *Record {
	return &Record{
		Environment:      env,
		Status:           StatusInProgress,
		ErrorMessage:     []string{},
		ExecutionDetails: map[string]any{},
	}
}
