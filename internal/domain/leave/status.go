package leave

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending        LeaveRequestStatus = "pending"
	LeaveRequestStatusPendingManager LeaveRequestStatus = "pending-manager"
	LeaveRequestStatusApproved       LeaveRequestStatus = "approved"
	LeaveRequestStatusRefused        LeaveRequestStatus = "refused"
	LeaveRequestStatusCancelled      LeaveRequestStatus = "cancelled"
)

func (s LeaveRequestStatus) IsValid() bool {
	switch s {
	case LeaveRequestStatusPending, LeaveRequestStatusPendingManager,
		LeaveRequestStatusApproved, LeaveRequestStatusRefused, LeaveRequestStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no review or cancel can follow
func (s LeaveRequestStatus) IsTerminal() bool {
	return s == LeaveRequestStatusApproved || s == LeaveRequestStatusRefused || s == LeaveRequestStatusCancelled
}

// Event is something that happens to a leave request
type Event string

const (
	EventReviewApprove Event = "review-approve"
	EventReviewRefuse  Event = "review-refuse"
	EventFinalApprove  Event = "final-approve"
	EventFinalRefuse   Event = "final-refuse"
	EventCancel        Event = "cancel"
	EventEdit          Event = "edit"
)

// Actor is the relationship the acting user must hold for an event
type Actor string

const (
	ActorOwner    Actor = "owner"
	ActorReviewer Actor = "reviewer"
	ActorManager  Actor = "manager"
)

type transitionKey struct {
	from  LeaveRequestStatus
	event Event
}

type Transition struct {
	To    LeaveRequestStatus
	Actor Actor
}

// transitions is the whole lifecycle. Peer review comes first, then the
// manager's final sign-off; a refusal at either step is terminal. Editing
// any request that has not been cancelled sends it back to pending.
var transitions = map[transitionKey]Transition{
	{LeaveRequestStatusPending, EventReviewApprove}:       {To: LeaveRequestStatusPendingManager, Actor: ActorReviewer},
	{LeaveRequestStatusPending, EventReviewRefuse}:        {To: LeaveRequestStatusRefused, Actor: ActorReviewer},
	{LeaveRequestStatusPendingManager, EventFinalApprove}: {To: LeaveRequestStatusApproved, Actor: ActorManager},
	{LeaveRequestStatusPendingManager, EventFinalRefuse}:  {To: LeaveRequestStatusRefused, Actor: ActorManager},

	{LeaveRequestStatusPending, EventCancel}:        {To: LeaveRequestStatusCancelled, Actor: ActorOwner},
	{LeaveRequestStatusPendingManager, EventCancel}: {To: LeaveRequestStatusCancelled, Actor: ActorOwner},

	{LeaveRequestStatusPending, EventEdit}:        {To: LeaveRequestStatusPending, Actor: ActorOwner},
	{LeaveRequestStatusPendingManager, EventEdit}: {To: LeaveRequestStatusPending, Actor: ActorOwner},
	{LeaveRequestStatusApproved, EventEdit}:       {To: LeaveRequestStatusPending, Actor: ActorOwner},
	{LeaveRequestStatusRefused, EventEdit}:        {To: LeaveRequestStatusPending, Actor: ActorOwner},
}

// NextStatus looks up the transition for event from status s
func NextStatus(s LeaveRequestStatus, event Event) (Transition, error) {
	t, ok := transitions[transitionKey{from: s, event: event}]
	if !ok {
		return Transition{}, &TransitionError{From: s, Event: event}
	}
	return t, nil
}

// ReviewEvent picks the event matching a review decision
func ReviewEvent(isApproved, isFinal bool) Event {
	switch {
	case isFinal && isApproved:
		return EventFinalApprove
	case isFinal:
		return EventFinalRefuse
	case isApproved:
		return EventReviewApprove
	default:
		return EventReviewRefuse
	}
}
