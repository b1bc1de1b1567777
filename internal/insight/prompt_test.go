package insight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/dermwatch/internal/store"
)

func promptRecords() []store.DailyRecord {
	dur := 30
	sleep := 7.5
	return []store.DailyRecord{
		{
			RecordDate:        "2026-03-01",
			ItchLevel:         7,
			MealType:          store.MealDinner,
			FoodItems:         []string{"牛奶", "鸡蛋"},
			FoodNotes:         "加了蜂蜜",
			ExerciseType:      "跑步",
			ExerciseDuration:  &dur,
			ExerciseIntensity: store.IntensityHigh,
			SleepDuration:     &sleep,
			SleepQuality:      2,
			AffectedAreas:     []string{"肘部", "颈部"},
			Mood:              store.MoodBad,
			SymptomNotes:      "晚上更痒",
		},
		{
			RecordDate: "2026-03-02",
			ItchLevel:  3,
			Mood:       store.MoodGood,
		},
	}
}

func TestPromptBuilder_Chinese(t *testing.T) {
	b, err := NewPromptBuilder("")
	require.NoError(t, err)
	assert.Equal(t, "zh", b.Language())

	got := b.Build(promptRecords())

	for _, want := range []string{
		"最近2条健康记录数据",
		"【第1条 - 2026-03-01】",
		"- 瘙痒程度: 7/10分",
		"- 饮食: 牛奶、鸡蛋 [餐次: 晚餐] (加了蜂蜜)",
		"- 运动: 跑步, 30分钟, 强度高",
		"- 睡眠: 7.5小时, 质量2/5分",
		"- 受影响部位: 肘部、颈部",
		"- 心情: 差",
		"- 备注: 晚上更痒",
		"【第2条 - 2026-03-02】",
		"- 心情: 好",
		"数据趋势总结",
		"请用中文回答",
	} {
		assert.Contains(t, got, want)
	}

	// The second record has no optional fields.
	second := got[strings.Index(got, "【第2条"):strings.Index(got, "作为一位专业的健康顾问")]
	assert.NotContains(t, second, "饮食")
	assert.NotContains(t, second, "睡眠")
	assert.NotContains(t, second, "运动")
}

func TestPromptBuilder_English(t *testing.T) {
	b, err := NewPromptBuilder("en")
	require.NoError(t, err)

	got := b.Build(promptRecords())
	assert.Contains(t, got, "[Entry 1 - 2026-03-01]")
	assert.Contains(t, got, "- Exercise: 跑步, 30 min, high intensity")
	assert.Contains(t, got, "- Mood: bad")
	assert.Contains(t, got, "Answer in English")
	assert.NotEmpty(t, b.Disclaimer())
}

func TestPromptBuilder_Deterministic(t *testing.T) {
	b, err := NewPromptBuilder("zh")
	require.NoError(t, err)
	assert.Equal(t, b.Build(promptRecords()), b.Build(promptRecords()))
}

func TestPromptBuilder_UnknownLanguage(t *testing.T) {
	_, err := NewPromptBuilder("fr")
	assert.Error(t, err)
}

func TestLanguages(t *testing.T) {
	assert.Equal(t, []string{"en", "zh"}, Languages())
}

func TestPromptBuilder_SleepQualityWithoutDuration(t *testing.T) {
	b, err := NewPromptBuilder("en")
	require.NoError(t, err)

	got := b.Summary([]store.DailyRecord{{RecordDate: "2026-03-01", ItchLevel: 4, SleepQuality: 5, Mood: store.MoodNeutral}})
	assert.Contains(t, got, "- Sleep: quality 5/5\n")
}
