package story

import "fmt"

const (
	minScenes = 2
	maxScenes = 5

	templateSceneMinutes = 30
)

// timeOfDayCycle is the rotation assigned to template scenes in order.
var timeOfDayCycle = [5]string{"morning", "midday", "afternoon", "evening", "night"}

// ClampSceneCount bounds a requested scene count to the supported range.
// Callers passing zero, negative, or oversized values are silently corrected.
func ClampSceneCount(n int) int {
	if n < minScenes {
		return minScenes
	}
	if n > maxScenes {
		return maxScenes
	}
	return n
}

// templateArc deterministically synthesizes an arc from the POI list. It is
// the always-available branch of the composer and doubles as the fallback
// reference the normalizer repairs model output against. Requires at least
// one POI; identical inputs yield identical output.
func templateArc(city, theme string, pois []PointOfInterest, sceneCount int) Arc {
	count := ClampSceneCount(sceneCount)
	scenes := make([]Scene, 0, count)
	for i := 0; i < count; i++ {
		poi := pois[i%len(pois)]
		scenes = append(scenes, Scene{
			ID:              fmt.Sprintf("scene_%d", i+1),
			Title:           fmt.Sprintf("第%d幕", i+1),
			TimeOfDay:       timeOfDayCycle[i%len(timeOfDayCycle)],
			POI:             poi,
			Shot:            fmt.Sprintf("在%s找一个能看到全貌的位置，把人物放在画面左下角", poi.Name),
			Narration:       fmt.Sprintf("走到%s，放慢脚步，感受%s独有的气息。", poi.Name, theme),
			Task:            fmt.Sprintf("在%s拍下一张你最满意的照片", poi.Name),
			DurationMinutes: templateSceneMinutes,
		})
	}
	return Arc{
		ID:      fmt.Sprintf("arc_%s_%s_%d", city, theme, count),
		City:    city,
		Theme:   theme,
		Title:   fmt.Sprintf("%s·%s漫游记", city, theme),
		Logline: fmt.Sprintf("用%d幕走进%s的%s，每一幕都有一件小事值得完成。", count, city, theme),
		Summary: fmt.Sprintf("一条围绕%s的%s主题路线，从%s出发。", city, theme, pois[0].Name),
		Scenes:  scenes,
	}
}
