// Package timeout defines centralized timeout constants for assistant operations.
// Package timeout 定义助手操作的集中式超时常量。
package timeout

import "time"

// Collaborator timeout constants.
// 外部协作方调用的超时常量。
const (
	// TurnTimeout bounds a whole dispatch turn, including every external call.
	// TurnTimeout 是单轮对话（包括所有外部调用）的超时时间。
	TurnTimeout = 60 * time.Second

	// ClassifierTimeout is the timeout for one intent classification request.
	// ClassifierTimeout 是一次意图分类请求的超时时间。
	ClassifierTimeout = 10 * time.Second

	// NormalizerTimeout is the timeout for one LLM document-kind normalization.
	// NormalizerTimeout 是一次文档类型归一化请求的超时时间。
	NormalizerTimeout = 8 * time.Second

	// UploadsTimeout is the timeout for reading a session's uploads.
	// UploadsTimeout 是读取会话上传列表的超时时间。
	UploadsTimeout = 5 * time.Second

	// CaseCreationTimeout is the timeout for the case-creation collaborator.
	// CaseCreationTimeout 是创建案件调用的超时时间。
	CaseCreationTimeout = 10 * time.Second

	// SessionBusyTimeout is how long a turn waits for another turn of the same session.
	// SessionBusyTimeout 是同一会话等待前一轮结束的最长时间。
	SessionBusyTimeout = 15 * time.Second

	// OCRTimeout is the timeout for extracting text from a single upload.
	OCRTimeout = 30 * time.Second
)

// Dispatch limits.
// 调度限制。
const (
	// MaxHops is the maximum number of agent handoffs within one turn.
	// MaxHops 是单轮内代理切换的最大次数。
	MaxHops = 25

	// MaxHistoryTurns is the number of turns kept per session.
	// MaxHistoryTurns 是每个会话保留的轮次数量。
	MaxHistoryTurns = 30

	// ClassifierHistoryTurns is the number of filtered turns sent to the classifier.
	ClassifierHistoryTurns = 20

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	// MaxTruncateLength 是日志中字符串截断的最大长度。
	MaxTruncateLength = 200
)
