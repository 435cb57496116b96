package simulation

import (
	"path/filepath"
	"testing"
)

func TestGeneratePersonas_Deterministic(t *testing.T) {
	a := GeneratePersonas(50, 42)
	b := GeneratePersonas(50, 42)
	if len(a) != 50 || len(b) != 50 {
		t.Fatalf("expected 50 personas, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i].AgentID != b[i].AgentID || a[i].Name != b[i].Name || a[i].Age != b[i].Age {
			t.Fatalf("persona %d diverges across identical seeds", i)
		}
		if a[i].EnvironmentalConcern != b[i].EnvironmentalConcern {
			t.Fatalf("persona %d concern diverges across identical seeds", i)
		}
	}
}

func TestGeneratePersonas_FieldRanges(t *testing.T) {
	personas := GeneratePersonas(200, 7)
	for _, p := range personas {
		if p.Age < 18 || p.Age > 65 {
			t.Errorf("%s: age %d outside [18, 65]", p.AgentID, p.Age)
		}
		if p.EnvironmentalConcern < 0.1 || p.EnvironmentalConcern > 0.95 {
			t.Errorf("%s: concern %f outside bounds", p.AgentID, p.EnvironmentalConcern)
		}
		if p.BrandTrust < 0.1 || p.BrandTrust > 0.9 {
			t.Errorf("%s: trust %f outside bounds", p.AgentID, p.BrandTrust)
		}
		if len(p.Interests) != 5 {
			t.Errorf("%s: %d interests, want 5", p.AgentID, len(p.Interests))
		}
		envCount := 0
		for _, interest := range p.Interests {
			for _, env := range environmentalInterests {
				if interest == env {
					envCount++
				}
			}
		}
		if envCount < 2 {
			t.Errorf("%s: only %d environmental interests", p.AgentID, envCount)
		}
		for _, trait := range []float64{
			p.Personality.Openness, p.Personality.Conscientiousness,
			p.Personality.Extraversion, p.Personality.Agreeableness,
			p.Personality.Neuroticism,
		} {
			if trait < 0.05 || trait > 0.95 {
				t.Errorf("%s: trait %f outside clamp", p.AgentID, trait)
			}
		}
	}
}

func TestGeneratePersonas_SequentialIDs(t *testing.T) {
	personas := GeneratePersonas(3, 1)
	want := []string{"agent_000", "agent_001", "agent_002"}
	for i, p := range personas {
		if p.AgentID != want[i] {
			t.Errorf("persona %d has ID %s, want %s", i, p.AgentID, want[i])
		}
	}
}

func TestPersonas_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.json")
	original := GeneratePersonas(10, 42)

	if err := SavePersonas(original, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadPersonas(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != len(original) {
		t.Fatalf("expected %d personas, got %d", len(original), len(loaded))
	}
	for i := range loaded {
		if loaded[i].AgentID != original[i].AgentID ||
			loaded[i].EnvironmentalConcern != original[i].EnvironmentalConcern {
			t.Errorf("persona %d did not survive the roundtrip", i)
		}
	}
}

func TestLoadPersonas_MissingFile(t *testing.T) {
	if _, err := LoadPersonas(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
