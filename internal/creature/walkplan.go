package creature

import "github.com/annel0/worldsim/internal/vec"

// WalkStrategy — когда пересчитывать маршрут
type WalkStrategy uint8

const (
	// WalkDoNotRecalculate идёт по точкам как есть, даже если цель сдвинулась
	WalkDoNotRecalculate WalkStrategy = iota
	// WalkConservativeCheck пересчитывает только когда следующий шаг заблокирован
	WalkConservativeCheck
	// WalkAggressiveRecalculate пересчитывает при каждом сдвиге цели
	WalkAggressiveRecalculate
)

// WalkPlan — маршрут существа
type WalkPlan struct {
	Strategy     WalkStrategy
	GoalDistance int
	Waypoints    []vec.Location
	// DetermineGoal возвращает актуальную цель. false — цель пропала.
	DetermineGoal func() (vec.Location, bool)
	lastGoal      vec.Location
}

// NewWalkPlan создаёт план с фиксированной целью
func NewWalkPlan(strategy WalkStrategy, goalDistance int, goal vec.Location, waypoints []vec.Location) *WalkPlan {
	return &WalkPlan{
		Strategy:      strategy,
		GoalDistance:  goalDistance,
		Waypoints:     waypoints,
		DetermineGoal: func() (vec.Location, bool) { return goal, true },
		lastGoal:      goal,
	}
}

// Goal — цель, относительно которой строился маршрут
func (w *WalkPlan) Goal() vec.Location { return w.lastGoal }

// SetGoal запоминает цель, под которую построен маршрут
func (w *WalkPlan) SetGoal(goal vec.Location, waypoints []vec.Location) {
	w.lastGoal = goal
	w.Waypoints = waypoints
}

// IsInProgress — остались ли точки маршрута
func (w *WalkPlan) IsInProgress() bool { return w != nil && len(w.Waypoints) > 0 }

// PeekWaypoint возвращает следующую точку без извлечения
func (w *WalkPlan) PeekWaypoint() (vec.Location, bool) {
	if !w.IsInProgress() {
		return vec.Location{}, false
	}
	return w.Waypoints[0], true
}

// PopWaypoint извлекает следующую точку
func (w *WalkPlan) PopWaypoint() (vec.Location, bool) {
	next, ok := w.PeekWaypoint()
	if ok {
		w.Waypoints = w.Waypoints[1:]
	}
	return next, ok
}

// NeedsRecalculation решает, нужен ли новый маршрут к текущей цели
func (w *WalkPlan) NeedsRecalculation(current vec.Location, nextBlocked bool) bool {
	switch w.Strategy {
	case WalkAggressiveRecalculate:
		return current != w.lastGoal || nextBlocked
	case WalkConservativeCheck:
		return nextBlocked
	default:
		return false
	}
}
