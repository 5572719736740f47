package mqtttopic

import "testing"

func TestFormatSubstitutesTokens(t *testing.T) {
	template := "vehicles/{modelId}/commands/{executorId}/{commandName}"
	got, res := Format(template, map[string]string{
		TokenModelID:     "v1",
		TokenExecutorID:  "car7",
		TokenCommandName: "unlock",
	})
	if res.Failed() {
		t.Fatalf("Format: %v", res)
	}
	if got != "vehicles/v1/commands/car7/unlock" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatMissingTokenFails(t *testing.T) {
	_, res := Format("vehicles/{modelId}/commands/{executorId}/{commandName}", map[string]string{
		TokenModelID: "v1",
	})
	if !res.Failed() {
		t.Fatalf("expected failure for missing tokens")
	}
}

func TestExtractRoundTrip(t *testing.T) {
	template := "vehicles/{modelId}/commands/{executorId}/{commandName}"
	values, res := Extract(template, "vehicles/v1/commands/car7/unlock")
	if res.Failed() {
		t.Fatalf("Extract: %v", res)
	}
	want := map[string]string{
		TokenModelID:     "v1",
		TokenExecutorID:  "car7",
		TokenCommandName: "unlock",
	}
	for k, v := range want {
		if values[k] != v {
			t.Fatalf("key %q: got %q want %q", k, values[k], v)
		}
	}
}

func TestExtractLiteralMismatchFails(t *testing.T) {
	template := "vehicles/{modelId}/commands/{executorId}/{commandName}"
	_, res := Extract(template, "trucks/v1/commands/car7/unlock")
	if !res.Failed() {
		t.Fatalf("expected failure on literal mismatch")
	}
}

func TestValidateFormat(t *testing.T) {
	if res := ValidateFormat("vehicles/{modelId}/commands/{executorId}"); res.Failed() {
		t.Fatalf("expected valid format: %v", res)
	}
	bad := []string{"", "vehicles//commands", "vehicles/{bad", "vehicles/{has/slash}"}
	for _, f := range bad {
		if res := ValidateFormat(f); !res.Failed() {
			t.Fatalf("expected invalid for %q", f)
		}
	}
}

func TestMatchesFilterWildcards(t *testing.T) {
	cases := []struct {
		filter, topic string
		want          bool
	}{
		{"vehicles/+/commands/+/+", "vehicles/v1/commands/car7/unlock", true},
		{"vehicles/#", "vehicles/v1/commands/car7/unlock", true},
		{"vehicles/v1/#", "vehicles/v2/commands/car7/unlock", false},
		{"vehicles/+", "vehicles/v1/commands", false},
		{"#", "$SYS/broker/uptime", false},
		{"$SYS/#", "$SYS/broker/uptime", true},
		{"+/broker/uptime", "$SYS/broker/uptime", false},
	}
	for _, c := range cases {
		got := MatchesFilter(c.filter, c.topic)
		if got != c.want {
			t.Fatalf("MatchesFilter(%q, %q) = %v, want %v", c.filter, c.topic, got, c.want)
		}
	}
}

func TestMatchesFilterSharedSubscription(t *testing.T) {
	if !MatchesFilter("$share/group1/vehicles/+/commands/+/+", "vehicles/v1/commands/car7/unlock") {
		t.Fatalf("expected shared-subscription filter to match after stripping prefix")
	}
}

func TestMatchesFilterRejectsWildcardTopic(t *testing.T) {
	if MatchesFilter("vehicles/+/commands/+/+", "vehicles/+/commands/car7/unlock") {
		t.Fatalf("a concrete topic containing '+' must never match")
	}
	if MatchesFilter("vehicles/#", "vehicles/v1/#") {
		t.Fatalf("a concrete topic containing '#' must never match")
	}
}

func TestFormatPrependsShareGroup(t *testing.T) {
	got, res := Format("vehicles/{modelId}/commands/{executorId}/{commandName}", map[string]string{
		TokenModelID:        "v1",
		TokenExecutorID:     AnyExecutorID,
		TokenCommandName:    "unlock",
		TokenServiceGroupID: "group1",
	})
	if res.Failed() {
		t.Fatalf("Format: %v", res)
	}
	if got != "$share/group1/vehicles/v1/commands/_any_/unlock" {
		t.Fatalf("got %q", got)
	}
}

func TestValidateFormatRejectsUnknownToken(t *testing.T) {
	if res := ValidateFormat("vehicles/{deviceId}"); !res.Failed() {
		t.Fatalf("expected failure for unrecognized token")
	}
}
