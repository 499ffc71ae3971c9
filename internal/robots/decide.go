package robots

import "net/url"

// decideFromRuleSet evaluates target against rs:
//  1. No groups at all in the fetched robots.txt -> allowed (EmptyRuleSet).
//  2. No group matched this user agent -> allowed (UserAgentNotMatched).
//  3. Among every allow/disallow rule whose pattern matches the path, the
//     rule with the longest pattern wins; an allow only overrides a disallow
//     when its pattern is strictly longer. A tie in length sticks with the
//     disallow.
//  4. No rule matched the path at all -> allowed (NoMatchingRules).
func decideFromRuleSet(rs ruleSet, target url.URL) Decision {
	decision := Decision{Url: target}
	if delay := rs.CrawlDelay(); delay != nil {
		decision.CrawlDelay = *delay
	}

	if !rs.hasGroups {
		decision.Allowed = true
		decision.Reason = EmptyRuleSet
		return decision
	}
	if !rs.matchedGroup {
		decision.Allowed = true
		decision.Reason = UserAgentNotMatched
		return decision
	}

	path := target.Path
	if path == "" {
		path = "/"
	}

	bestAllow, anyAllow := -1, false
	for _, rule := range rs.allowRules {
		if rule.matches(path) {
			anyAllow = true
			if spec := rule.specificity(); spec > bestAllow {
				bestAllow = spec
			}
		}
	}

	bestDisallow, anyDisallow := -1, false
	for _, rule := range rs.disallowRules {
		if rule.matches(path) {
			anyDisallow = true
			if spec := rule.specificity(); spec > bestDisallow {
				bestDisallow = spec
			}
		}
	}

	switch {
	case !anyAllow && !anyDisallow:
		decision.Allowed = true
		decision.Reason = NoMatchingRules
	case bestAllow > bestDisallow:
		decision.Allowed = true
		decision.Reason = AllowedByRobots
	case anyDisallow:
		decision.Allowed = false
		decision.Reason = DisallowedByRobots
	default:
		decision.Allowed = true
		decision.Reason = AllowedByRobots
	}

	return decision
}
