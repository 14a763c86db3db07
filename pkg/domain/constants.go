package domain

// ActionAssignRepairCrew is the terminal planning action: choosing it ends
// planning and hands the decision to EXECUTION.
const ActionAssignRepairCrew = "assign_repair_crew"

// Transition tags recorded in the history.
const (
	TagInitialize           = "initialize"
	TagNoFailuresDetected   = "no_failures_detected"
	TagFailuresDetected     = "failures_detected"
	TagImpactAnalyzed       = "impact_analyzed"
	TagMaxRetriesReached    = "max_retries_reached"
	TagDecisionAssignCrew   = "llm_decision_assign_crew"
	TagDecisionUseTool      = "llm_decision_use_tool"
	TagAssignmentsSucceeded = "assignments_succeeded"
	TagAssignmentsFailed    = "assignments_failed"
	TagCascadingFailures    = "cascading_failures"
	TagRepairsCompleted     = "repairs_completed"
)

// Plan history roles.
const (
	RoleToolOutput      = "tool_output"
	RoleExecutionResult = "execution_result"
	RoleError           = "error"
)

// Plan history error messages.
const (
	MsgInvalidJSON   = "Invalid JSON response from LLM"
	MsgEmptyResponse = "Empty response from LLM"
	MsgUnknownTool   = "Unknown tool: "
)

// Keys of TransitionRecord.Data and of the planning context.
const (
	KeyFailures            = "failures"
	KeyNewFailures         = "new_failures"
	KeyFailedNodes         = "failed_nodes"
	KeyImpactReport        = "impact_report"
	KeyRetryCount          = "retry_count"
	KeyDecision            = "decision"
	KeyTool                = "tool"
	KeyArguments           = "arguments"
	KeyDetails             = "details"
	KeyConversationHistory = "conversation_history"
)
