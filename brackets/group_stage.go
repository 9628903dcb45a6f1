package brackets

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

const groupTargetSize = 4

// GroupMatch - пара игроков внутри группы. Раунд у всех матчей
// группового этапа одинаковый.
type GroupMatch struct {
	GroupName string
	Player1ID int
	Player2ID int
	Round     int
}

// GroupStagePlan - результат жеребьёвки: состав групп и расписание
// круговых матчей внутри каждой группы.
type GroupStagePlan struct {
	Groups  map[string][]int
	Matches []GroupMatch
}

type GroupStageGenerator struct {
	rnd *rand.Rand
}

// NewGroupStageGenerator принимает источник случайности, чтобы жеребьёвку
// можно было воспроизводить в тестах. nil означает обычный недетерминизм.
func NewGroupStageGenerator(rnd *rand.Rand) *GroupStageGenerator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &GroupStageGenerator{rnd: rnd}
}

// Generate перемешивает участников и раскладывает их по группам,
// размер которых тяготеет к четырём игрокам. Внутри каждой группы
// строится однокруговое расписание: каждый с каждым по одному матчу.
func (g *GroupStageGenerator) Generate(userIDs []int) (*GroupStagePlan, error) {
	if len(userIDs) < 2 {
		return nil, fmt.Errorf("group stage: not enough participants (found %d, min 2 required)", len(userIDs))
	}

	shuffled := make([]int, len(userIDs))
	copy(shuffled, userIDs)
	g.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	numGroups := int(math.Round(float64(len(shuffled)) / groupTargetSize))
	if numGroups < 1 {
		numGroups = 1
	}

	groups := make(map[string][]int, numGroups)
	names := make([]string, 0, numGroups)
	for i := 0; i < numGroups; i++ {
		names = append(names, groupName(i))
	}
	for idx, userID := range shuffled {
		name := names[idx%numGroups]
		groups[name] = append(groups[name], userID)
	}

	matches := make([]GroupMatch, 0)
	for _, name := range names {
		members := groups[name]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				matches = append(matches, GroupMatch{
					GroupName: name,
					Player1ID: members[i],
					Player2ID: members[j],
					Round:     1,
				})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].GroupName < matches[j].GroupName
	})

	return &GroupStagePlan{Groups: groups, Matches: matches}, nil
}

// Sample возвращает до count случайных элементов из candidates,
// не меняя исходный срез. Используется при подборе свидетелей.
func (g *GroupStageGenerator) Sample(candidates []int, count int) []int {
	if count >= len(candidates) {
		picked := make([]int, len(candidates))
		copy(picked, candidates)
		return picked
	}
	shuffled := make([]int, len(candidates))
	copy(shuffled, candidates)
	g.rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:count]
}

func groupName(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("A%c", rune('A'+i-26))
}
