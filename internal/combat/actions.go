package combat

import "github.com/venh/typeclash/internal/model"

// AttackAction converts an attack calculation into an applied result.
func AttackAction(cw model.CompletedWord, res Result) model.ActionResult {
	return model.ActionResult{
		Type:       model.WordTypeAttack,
		Value:      res.FinalValue,
		IsCritical: res.IsCritical,
		Success:    cw.Accuracy >= model.MinSuccessAccuracy,
	}
}

// HealAction converts a heal calculation into an applied result.
func HealAction(cw model.CompletedWord, res Result) model.ActionResult {
	return model.ActionResult{
		Type:       model.WordTypeHeal,
		Value:      res.FinalValue,
		IsCritical: res.IsCritical,
		Success:    cw.Accuracy >= model.MinSuccessAccuracy,
	}
}

// GuardAction converts a guard calculation into an applied result.
// Value is the damage blocked; DamageReceived is what got through.
func GuardAction(cw model.CompletedWord, res Result, incoming int) model.ActionResult {
	if incoming < 0 {
		incoming = 0
	}
	blocked := res.FinalValue
	if blocked > incoming {
		blocked = incoming
	}
	return model.ActionResult{
		Type:           model.WordTypeGuard,
		Value:          blocked,
		DamageReceived: incoming - blocked,
		IsCritical:     res.IsCritical,
		Success:        cw.Accuracy >= model.MinSuccessAccuracy,
	}
}

// ClampHP bounds a hit-point value to [0, max].
func ClampHP(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
