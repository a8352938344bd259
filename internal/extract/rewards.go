package extract

import (
	"sort"
	"strings"

	"txScope/internal/amount"
	"txScope/internal/model"
)

type rewardScan struct {
	claims           []model.ValidatorClaim
	totalLuna        string
	stakingValidator string
	minted           string
	mintRecipient    string
	lastRecipient    string
	collected        string
	treasury         string
	transfers        []model.Event
}

// Rewards reconstructs an alliance reward claim. It returns nil unless a
// liquid-staking mint was emitted.
func (e *Extractor) Rewards(tx model.Transaction) *model.RewardBreakdown {
	return guard(e, "rewards", func() *model.RewardBreakdown {
		scan := scanRewards(rewardEvents(tx))
		if scan.minted == "" {
			return nil
		}

		out := &model.RewardBreakdown{
			Kind:              model.RewardKindDetailed,
			TotalLunaClaimed:  scan.totalLuna,
			ValidatorClaims:   scan.claims,
			MintedLiquidToken: scan.minted,
			StakingValidator:  scan.stakingValidator,
			Recipient:         scan.mintRecipient,
		}
		if out.Recipient == "" {
			out.Recipient = scan.lastRecipient
		}
		if out.TotalLunaClaimed == "" {
			values := make([]string, 0, len(scan.claims))
			for _, c := range scan.claims {
				values = append(values, c.Amount)
			}
			out.TotalLunaClaimed = amount.SumMicro(values...)
		}

		out.UserPortion = scan.collected
		if scan.treasury != "" {
			out.TreasuryPortion = scan.treasury
			out.TreasuryAddress = treasuryRecipient(scan.transfers, scan.treasury)
			// The user share must reconcile with the mint.
			if derived, ok := amount.SubMicro(scan.minted, scan.treasury); ok {
				if scan.collected == "" || amount.SumMicro(scan.collected, scan.treasury) != scan.minted {
					out.UserPortion = derived
				}
			}
		}

		shown := out.UserPortion
		if shown == "" {
			shown = out.MintedLiquidToken
		}
		out.Formatted = shown + " ampLUNA"
		return out
	})
}

func scanRewards(events []model.Event) rewardScan {
	var s rewardScan
	for _, ev := range events {
		switch {
		case ev.Type == "withdraw_rewards":
			validator, _ := ev.Attr("validator")
			value, _ := ev.Attr("amount")
			m := lunaPattern.FindStringSubmatch(value)
			if validator == "" || m == nil {
				continue
			}
			formatted, ok := amount.FormatMicro(m[1])
			if !ok {
				continue
			}
			s.claims = append(s.claims, model.ValidatorClaim{Validator: validator, Amount: formatted, AmountRaw: m[1]})

		case ev.Type == "delegate":
			if value, ok := ev.Attr("amount"); ok {
				if m := lunaPattern.FindStringSubmatch(value); m != nil {
					s.totalLuna, _ = amount.FormatMicro(m[1])
				}
			}
			if v, ok := ev.Attr("validator"); ok && v != "" {
				s.stakingValidator = v
			}

		case isWasm(ev.Type):
			action, _ := ev.Attr("action")
			to, _ := ev.Attr("to")
			if to != "" {
				s.lastRecipient = to
			}
			switch action {
			case "mint":
				if raw, ok := ev.Attr("amount"); ok {
					if formatted, ok := amount.FormatMicro(raw); ok {
						s.minted = formatted
						if to != "" {
							s.mintRecipient = to
						}
					}
				}
			case "update_rewards_callback":
				if raw, ok := ev.Attr("rewards_collected"); ok {
					s.collected, _ = amount.FormatMicro(raw)
				}
				if raw, ok := ev.Attr("treasury_amount"); ok {
					s.treasury, _ = amount.FormatMicro(raw)
				}
			case "transfer":
				s.transfers = append(s.transfers, ev)
			}
		}
	}
	return s
}

// treasuryRecipient returns the first transfer whose amount equals the treasury share.
func treasuryRecipient(transfers []model.Event, treasury string) string {
	for _, ev := range transfers {
		to, _ := ev.Attr("to")
		raw, _ := ev.Attr("amount")
		if to == "" || raw == "" {
			continue
		}
		if formatted, ok := amount.FormatMicro(raw); ok && formatted == treasury {
			return to
		}
	}
	return ""
}

// rewardEvents combines log and top-level events, dropping top-level copies of
// log events. Newer nodes add a msg_index attribute, ignored for the comparison.
func rewardEvents(tx model.Transaction) []model.Event {
	logs := tx.LogEvents()
	seen := make(map[string]int, len(logs))
	for _, ev := range logs {
		seen[eventKey(ev)]++
	}
	out := append([]model.Event{}, logs...)
	for _, ev := range tx.Events {
		key := eventKey(ev)
		if seen[key] > 0 {
			seen[key]--
			continue
		}
		out = append(out, ev)
	}
	return out
}

func eventKey(ev model.Event) string {
	parts := make([]string, 0, len(ev.Attributes))
	for _, a := range ev.Attributes {
		if a.Key == "msg_index" {
			continue
		}
		parts = append(parts, a.Key+"="+a.Value)
	}
	sort.Strings(parts)
	return ev.Type + "|" + strings.Join(parts, "|")
}
