package model

// Evaluation records that one user evaluated another after a rehearsal
// room ended.  Its presence is what makes evaluation submission
// idempotent per (room, evaluator); the scores themselves are folded
// into users.manner_score at submission time.
type Evaluation struct {
    ID                uint64 // evaluations.id
    RoomID            uint64 // evaluations.room_id
    EvaluatorNickname string // evaluations.evaluator_nickname
    EvaluatedNickname string // evaluations.evaluated_nickname
}
