package pathfinding

import (
	"container/heap"

	"github.com/annel0/worldsim/internal/vec"
)

// DefaultMaxNodes — предел раскрытых узлов на один поиск
const DefaultMaxNodes = 4096

// Стоимость шагов: диагональ заметно дороже, как и время диагонального шага
const (
	straightCost = 10
	diagonalCost = 25
)

// Grid сообщает, можно ли наступить на тайл
type Grid interface {
	IsWalkable(loc vec.Location) bool
}

// GridFunc адаптирует функцию к Grid
type GridFunc func(loc vec.Location) bool

func (f GridFunc) IsWalkable(loc vec.Location) bool { return f(loc) }

// Result — результат поиска пути
type Result struct {
	Found      bool
	End        vec.Location
	Directions []vec.Direction
}

// Finder ищет пути по сетке тайлов
type Finder struct {
	MaxNodes int
}

// NewFinder создаёт поисковик с пределом по умолчанию
func NewFinder() *Finder {
	return &Finder{MaxNodes: DefaultMaxNodes}
}

var neighborDirections = [...]vec.Direction{
	vec.North, vec.East, vec.South, vec.West,
	vec.NorthEast, vec.SouthEast, vec.SouthWest, vec.NorthWest,
}

type pathNode struct {
	loc    vec.Location
	g      int
	f      int
	seq    int
	index  int
	dir    vec.Direction
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].seq < pq[j].seq
}

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*pq)
	*pq = append(*pq, n)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// FindPath ищет путь от from к любому тайлу не дальше targetDistance от to.
// Тайлы из exclude считаются занятыми. Поиск идёт только по этажу from.
func (f *Finder) FindPath(grid Grid, from, to vec.Location, targetDistance int, exclude []vec.Location) Result {
	if from.Z != to.Z || grid == nil {
		return Result{}
	}
	targetDistance = max(targetDistance, 0)
	if reached(from, to, targetDistance) {
		return Result{Found: true, End: from}
	}

	blocked := make(map[vec.Location]struct{}, len(exclude))
	for _, l := range exclude {
		blocked[l] = struct{}{}
	}

	maxNodes := f.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}

	open := &pathQueue{}
	seq := 0
	heap.Push(open, &pathNode{loc: from, f: heuristic(from, to)})
	gScore := map[vec.Location]int{from: 0}
	closed := make(map[vec.Location]struct{})

	for open.Len() > 0 && len(closed) < maxNodes {
		current := heap.Pop(open).(*pathNode)
		if _, seen := closed[current.loc]; seen {
			continue
		}
		closed[current.loc] = struct{}{}

		if reached(current.loc, to, targetDistance) {
			return Result{Found: true, End: current.loc, Directions: directionsTo(current)}
		}

		for _, dir := range neighborDirections {
			next := current.loc.Translate(dir)
			if _, seen := closed[next]; seen {
				continue
			}
			if _, ex := blocked[next]; ex {
				continue
			}
			if !grid.IsWalkable(next) {
				continue
			}

			cost := straightCost
			if dir.IsDiagonal() {
				cost = diagonalCost
			}
			g := current.g + cost
			if prev, ok := gScore[next]; ok && g >= prev {
				continue
			}
			gScore[next] = g
			seq++
			heap.Push(open, &pathNode{
				loc:    next,
				g:      g,
				f:      g + heuristic(next, to),
				seq:    seq,
				dir:    dir,
				parent: current,
			})
		}
	}
	return Result{}
}

// reached — на дистанции цели. Нулевая дистанция требует встать на сам тайл.
func reached(loc, to vec.Location, distance int) bool {
	d := loc.DistanceTo(to)
	return d >= 0 && d <= distance
}

func heuristic(a, b vec.Location) int {
	dx, dy, _ := a.Delta(b)
	dx, dy = abs(dx), abs(dy)
	return straightCost * max(dx, dy)
}

func directionsTo(end *pathNode) []vec.Direction {
	var dirs []vec.Direction
	for n := end; n.parent != nil; n = n.parent {
		dirs = append(dirs, n.dir)
	}
	for i, j := 0, len(dirs)-1; i < j; i, j = i+1, j-1 {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
	return dirs
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
