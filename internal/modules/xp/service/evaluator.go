package service

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"unicode/utf8"

	"anoa.com/aiiforsaxp/internal/entity"
	"anoa.com/aiiforsaxp/internal/modules/xp/repository"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/datatypes"
)

const (
	metaCountKey      = "count"
	maxMetaStringLen  = 500
	maxMetaEntryCount = 20
)

var metaPolicy = bluemonday.StrictPolicy()

// Meta is the narrowed form of the free-form event payload.
type Meta struct {
	// Count overrides the live count for count-based conditions.
	Count *int
	// Values are the sanitized scalar entries stored with the award.
	Values map[string]any
}

// NarrowMeta keeps scalar entries only, strips markup from strings, and
// extracts a non-negative integral "count".
func NarrowMeta(raw map[string]any) Meta {
	var m Meta
	for k, v := range raw {
		if k == metaCountKey {
			if n, ok := asCount(v); ok {
				m.Count = &n
			}
			continue
		}
		if len(m.Values) >= maxMetaEntryCount {
			continue
		}

		var clean any
		switch val := v.(type) {
		case string:
			s := strings.TrimSpace(metaPolicy.Sanitize(val))
			if utf8.RuneCountInString(s) > maxMetaStringLen {
				s = string([]rune(s)[:maxMetaStringLen])
			}
			clean = s
		case bool, float64, int, int64, json.Number:
			clean = val
		default:
			continue
		}

		if m.Values == nil {
			m.Values = make(map[string]any)
		}
		m.Values[metaPolicy.Sanitize(k)] = clean
	}
	return m
}

// JSON encodes Values for storage; nil when there is nothing to keep.
func (m Meta) JSON() datatypes.JSON {
	if len(m.Values) == 0 {
		return nil
	}
	b, err := json.Marshal(m.Values)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func asCount(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, n >= 0
	case int64:
		return int(n), n >= 0
	case float64:
		if n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil || i < 0 {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

// Satisfies compares a current value against the definition's threshold.
// Definitions without a condition are always satisfied.
func Satisfies(def *entity.AchievementDefinition, current int) bool {
	if def.ConditionType == nil {
		return true
	}
	threshold := 0
	if def.ConditionValue != nil {
		threshold = *def.ConditionValue
	}
	return current >= threshold
}

// Evaluator decides whether a triggered event meets a definition's condition.
// It only reads from the count provider.
type Evaluator struct {
	counts repository.CountProvider
}

func NewEvaluator(counts repository.CountProvider) *Evaluator {
	return &Evaluator{counts: counts}
}

// Evaluate returns the value the condition was checked against and whether
// it holds.
func (e *Evaluator) Evaluate(ctx context.Context, userID uuid.UUID, def *entity.AchievementDefinition, meta Meta) (int, bool, error) {
	if def.ConditionType == nil {
		return 0, true, nil
	}

	condition := *def.ConditionType
	if meta.Count != nil && condition != entity.ConditionProfileComplete {
		return *meta.Count, Satisfies(def, *meta.Count), nil
	}
	if e.counts == nil {
		return 0, false, nil
	}

	current, err := e.counts.Count(ctx, userID, condition)
	if err != nil {
		return 0, false, err
	}
	return current, Satisfies(def, current), nil
}
