package gate

import "github.com/rustyeddy/riskgate/config"

// Validate applies the static quality filters to a candidate. Pure
// function, no I/O. A malformed candidate short-circuits with the
// distinguished MalformedInput code; otherwise every failing filter is
// accumulated in fixed order for diagnostics. An empty result means the
// candidate passed.
func Validate(c SetupCandidate, cfg config.ValidationConfig) []ReasonCode {
	if c.Malformed() {
		return []ReasonCode{ReasonMalformedInput}
	}

	var reasons []ReasonCode

	if c.Confidence < cfg.MinConfidence {
		reasons = append(reasons, ReasonLowConfidence)
	}
	if c.RewardRisk < cfg.MinRewardRisk {
		reasons = append(reasons, ReasonLowRewardRisk)
	}
	for _, excluded := range cfg.ExcludedSetupTypes {
		if c.SetupType == excluded {
			reasons = append(reasons, ReasonExcludedSetupType)
			break
		}
	}

	return reasons
}
