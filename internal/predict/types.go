package predict

// Vec2 is a 2D world-frame vector. The same type carries positions (meters),
// velocities (m/s) and accelerations (m/s²).
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LaneTurn encodes the turn type of the lane a snapshot sits on.
// Codes match the upstream map data: 0=straight, 1=left, 2=right, 3=u-turn.
type LaneTurn int

const (
	TurnStraight LaneTurn = 0
	TurnLeft     LaneTurn = 1
	TurnRight    LaneTurn = 2
	TurnUTurn    LaneTurn = 3
)

// laneTurnCategories is the number of one-hot slots emitted for LaneTurn.
const laneTurnCategories = 4

// LaneRelation describes how a snapshot relates to the lane it was matched
// to: lateral offset, heading offset, and distances to both boundaries.
type LaneRelation struct {
	LaneL        float64  `json:"lane_l"`
	AngleDiff    float64  `json:"angle_diff"`
	DistLeft     float64  `json:"dist_to_left_boundary"`
	DistRight    float64  `json:"dist_to_right_boundary"`
	LaneTurnType LaneTurn `json:"lane_turn_type"`
}

// Snapshot is one recorded observation of an obstacle. Snapshots are
// produced by the upstream tracking system and are immutable once recorded,
// except for OfflineFeatures which the evaluator appends to in recording
// mode. Optional fields are nil when the tracker could not estimate them.
type Snapshot struct {
	Timestamp       float64       `json:"timestamp"` // unix seconds
	Position        *Vec2         `json:"position,omitempty"`
	Velocity        *Vec2         `json:"velocity,omitempty"`
	Acceleration    *Vec2         `json:"acceleration,omitempty"`
	VelocityHeading *float64      `json:"velocity_heading,omitempty"` // radians
	Speed           float64       `json:"speed"`
	Length          float64       `json:"length"`
	Lane            *LaneRelation `json:"lane,omitempty"`
	LaneGraph       *LaneGraph    `json:"lane_graph,omitempty"`

	// OfflineFeatures holds the raw feature vector of each candidate lane
	// sequence, appended during offline recording runs. Empty otherwise.
	OfflineFeatures [][]float64 `json:"offline_features,omitempty"`
}

// heading returns the velocity heading, or 0 when the tracker did not
// estimate one. Matches the upstream convention of defaulting to zero.
func (s *Snapshot) heading() float64 {
	if s.VelocityHeading != nil {
		return *s.VelocityHeading
	}
	return 0
}

// Obstacle is a tracked object with its observation history, newest first.
// Owned by the external tracking subsystem; the evaluator only reads it.
type Obstacle struct {
	ID      int         `json:"id"`
	History []*Snapshot `json:"history"` // newest first; nil entries are uninitialized slots
}

// Latest returns the most recent snapshot, or nil when there is none.
func (o *Obstacle) Latest() *Snapshot {
	if len(o.History) == 0 {
		return nil
	}
	return o.History[0]
}

// Timestamp returns the timestamp of the latest snapshot, or 0.
func (o *Obstacle) Timestamp() float64 {
	latest := o.Latest()
	if latest == nil {
		return 0
	}
	return latest.Timestamp
}

// LanePoint is a single point of lane centerline geometry.
type LanePoint struct {
	Position *Vec2   `json:"position,omitempty"`
	Heading  float64 `json:"heading"` // radians, world frame
	Kappa    float64 `json:"kappa"`   // curvature, 1/m
}

// LaneSegment is an ordered run of lane points belonging to one lane.
type LaneSegment struct {
	LaneID string      `json:"lane_id,omitempty"`
	Points []LanePoint `json:"points"`
}

// NearbyObstacle records another tracked object seen along a lane sequence,
// with its longitudinal (s) and lateral (l) offset relative to the subject.
type NearbyObstacle struct {
	ID int     `json:"id"`
	S  float64 `json:"s"`
	L  float64 `json:"l"`
}

// LaneSequence is one candidate future path for an obstacle. The lane-graph
// builder creates it once per evaluation cycle; the evaluator annotates
// Probability and TimeToLaneCenter in place.
type LaneSequence struct {
	Segments        []LaneSegment    `json:"segments"`
	NearbyObstacles []NearbyObstacle `json:"nearby_obstacles,omitempty"`

	// VehicleOnLane selects the model variant: true means the path keeps the
	// obstacle in its current lane ("go"), false means a cut-in.
	VehicleOnLane bool `json:"vehicle_on_lane"`

	// Outputs, written by the evaluator.
	Probability      float64 `json:"probability"`
	TimeToLaneCenter float64 `json:"time_to_lane_center"`
}

// LaneGraph holds the candidate lane sequences built for one obstacle.
type LaneGraph struct {
	Sequences []*LaneSequence `json:"sequences"`
}

// Registry resolves obstacles by id. It is the read-only capability handed
// to the evaluator so nearby-obstacle attributes can be looked up without a
// global container. A nil return means the obstacle is no longer tracked.
type Registry interface {
	Obstacle(id int) *Obstacle
}

// ObstacleStore is a minimal in-memory Registry used by tests and the
// replay CLI. The production registry lives in the tracking subsystem.
type ObstacleStore struct {
	obstacles map[int]*Obstacle
}

// NewObstacleStore returns an empty store.
func NewObstacleStore() *ObstacleStore {
	return &ObstacleStore{obstacles: make(map[int]*Obstacle)}
}

// Put registers an obstacle, replacing any previous entry with the same id.
func (s *ObstacleStore) Put(o *Obstacle) {
	if o == nil {
		return
	}
	s.obstacles[o.ID] = o
}

// Obstacle returns the obstacle with the given id, or nil.
func (s *ObstacleStore) Obstacle(id int) *Obstacle {
	return s.obstacles[id]
}
