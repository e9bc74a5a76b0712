package domain

type DecisionAction string

const (
	ActionApprove DecisionAction = "aprobar"
	ActionReject  DecisionAction = "rechazar"
)

// PublishRequest is what an approval hands back to the chat transport: the
// photo file ids to post to the public channel, in reference photo order, and
// the rendered channel caption.
type PublishRequest struct {
	ImageRefs []string
	Caption   string
}

// ReviewerPolicy decides who may review submissions and use the
// reviewer-only commands. Today that is a single configured account.
type ReviewerPolicy struct {
	ReviewerID int64
}

func (p ReviewerPolicy) Allows(userID int64) bool {
	return p.ReviewerID != 0 && userID == p.ReviewerID
}
