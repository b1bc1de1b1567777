package insight

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/dermwatch/internal/store"
)

//go:embed prompts.yaml
var promptsYAML []byte

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "zh"

// promptSet holds the labels and instructions for one language.
type promptSet struct {
	Intro       string            `yaml:"intro"`
	Entry       string            `yaml:"entry"`
	Itch        string            `yaml:"itch"`
	Diet        string            `yaml:"diet"`
	Meal        string            `yaml:"meal"`
	Exercise    string            `yaml:"exercise"`
	Minutes     string            `yaml:"minutes"`
	Intensity   string            `yaml:"intensity"`
	Sleep       string            `yaml:"sleep"`
	Hours       string            `yaml:"hours"`
	Quality     string            `yaml:"quality"`
	Areas       string            `yaml:"areas"`
	Mood        string            `yaml:"mood"`
	Notes       string            `yaml:"notes"`
	SleepNotes  string            `yaml:"sleep_notes"`
	Separator   string            `yaml:"separator"`
	Moods       map[string]string `yaml:"moods"`
	Meals       map[string]string `yaml:"meals"`
	Intensities map[string]string `yaml:"intensities"`

	Instructions string `yaml:"instructions"`
	Disclaimer   string `yaml:"disclaimer"`
}

func loadPrompts() (map[string]promptSet, error) {
	var sets map[string]promptSet
	if err := yaml.Unmarshal(promptsYAML, &sets); err != nil {
		return nil, fmt.Errorf("parsing embedded prompts: %w", err)
	}
	return sets, nil
}

// Languages lists the prompt languages available.
func Languages() []string {
	sets, err := loadPrompts()
	if err != nil {
		return nil
	}
	langs := make([]string, 0, len(sets))
	for lang := range sets {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// PromptBuilder renders a record window into the analysis prompt.
type PromptBuilder struct {
	lang string
	set  promptSet
}

// NewPromptBuilder returns a builder for lang. An empty lang selects
// DefaultLanguage.
func NewPromptBuilder(lang string) (*PromptBuilder, error) {
	if lang == "" {
		lang = DefaultLanguage
	}
	sets, err := loadPrompts()
	if err != nil {
		return nil, err
	}
	set, ok := sets[lang]
	if !ok {
		return nil, fmt.Errorf("no prompts for language %q (have %s)", lang, strings.Join(Languages(), ", "))
	}
	return &PromptBuilder{lang: lang, set: set}, nil
}

// Language returns the builder's language.
func (b *PromptBuilder) Language() string {
	return b.lang
}

// Disclaimer returns the medical disclaimer shown alongside an analysis.
func (b *PromptBuilder) Disclaimer() string {
	return b.set.Disclaimer
}

// Build returns the full prompt: the case summary followed by the
// analysis instructions. Records are rendered in the order given.
func (b *PromptBuilder) Build(records []store.DailyRecord) string {
	var sb strings.Builder
	sb.WriteString(b.Summary(records))
	sb.WriteString("\n")
	sb.WriteString(b.set.Instructions)
	return sb.String()
}

// Summary renders one paragraph per record.
func (b *PromptBuilder) Summary(records []store.DailyRecord) string {
	s := b.set
	var sb strings.Builder
	fmt.Fprintf(&sb, s.Intro+"\n\n", len(records))

	for i, r := range records {
		fmt.Fprintf(&sb, s.Entry+"\n", i+1, r.RecordDate)
		fmt.Fprintf(&sb, "- "+s.Itch+"\n", r.ItchLevel)

		if len(r.FoodItems) > 0 {
			sb.WriteString("- " + s.Diet + ": " + strings.Join(r.FoodItems, s.Separator))
			if r.MealType != "" {
				sb.WriteString(" [" + s.Meal + ": " + label(s.Meals, r.MealType) + "]")
			}
			if r.FoodNotes != "" {
				sb.WriteString(" (" + r.FoodNotes + ")")
			}
			sb.WriteString("\n")
		}

		if r.HasExercise() {
			parts := []string{r.ExerciseType}
			if r.ExerciseDuration != nil {
				parts = append(parts, fmt.Sprintf(s.Minutes, *r.ExerciseDuration))
			}
			if r.ExerciseIntensity != "" {
				parts = append(parts, fmt.Sprintf(s.Intensity, label(s.Intensities, r.ExerciseIntensity)))
			}
			sb.WriteString("- " + s.Exercise + ": " + strings.Join(parts, ", ") + "\n")
		}

		if r.SleepDuration != nil || r.SleepQuality > 0 {
			var parts []string
			if r.SleepDuration != nil {
				parts = append(parts, fmt.Sprintf(s.Hours, strconv.FormatFloat(*r.SleepDuration, 'f', -1, 64)))
			}
			if r.SleepQuality > 0 {
				parts = append(parts, fmt.Sprintf(s.Quality, r.SleepQuality))
			}
			sb.WriteString("- " + s.Sleep + ": " + strings.Join(parts, ", ") + "\n")
		}
		if r.SleepNotes != "" {
			sb.WriteString("- " + s.SleepNotes + ": " + r.SleepNotes + "\n")
		}

		if len(r.AffectedAreas) > 0 {
			sb.WriteString("- " + s.Areas + ": " + strings.Join(r.AffectedAreas, s.Separator) + "\n")
		}

		sb.WriteString("- " + s.Mood + ": " + label(s.Moods, r.Mood) + "\n")

		if r.SymptomNotes != "" {
			sb.WriteString("- " + s.Notes + ": " + r.SymptomNotes + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// label translates an enum value, falling back to the raw value.
func label(labels map[string]string, v string) string {
	if l, ok := labels[v]; ok {
		return l
	}
	return v
}
