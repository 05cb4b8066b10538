package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"nutrisnap/internal/model"
)

// CoachService is the high-level AI surface: food analysis, spoken
// summaries, pantry audits, and the coaching generators. It owns the
// prompts and output schemas; transport lives in Client.
type CoachService struct {
	client *Client

	analysisModel string // structured analysis and generators
	ttsModel      string // spoken summaries
	imageModel    string // meal image transforms

	now func() time.Time
}

func NewCoachService(client *Client, analysisModel, ttsModel, imageModel string) *CoachService {
	return &CoachService{
		client:        client,
		analysisModel: analysisModel,
		ttsModel:      ttsModel,
		imageModel:    imageModel,
		now:           time.Now,
	}
}

var nutritionSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"calories":            {Type: TypeNumber},
		"protein":             {Type: TypeNumber},
		"carbs":               {Type: TypeNumber},
		"fat":                 {Type: TypeNumber},
		"health_benefits":     {Type: TypeArray, Items: &Schema{Type: TypeString}},
		"harmful_warnings":    {Type: TypeArray, Items: &Schema{Type: TypeString}},
		"nova_score":          {Type: TypeNumber, Description: "1-4 NOVA scale"},
		"is_ultra_processed":  {Type: TypeBoolean},
		"motivation":          {Type: TypeString},
		"verdict":             {Type: TypeString},
		"health_score":        {Type: TypeNumber},
		"key_nutrients":       {Type: TypeArray, Items: &Schema{Type: TypeString}},
		"better_alternatives": {Type: TypeArray, Items: &Schema{Type: TypeString}},
	},
	Required: []string{
		"calories", "protein", "carbs", "fat", "health_benefits", "harmful_warnings",
		"nova_score", "is_ultra_processed", "motivation", "verdict", "health_score",
		"key_nutrients",
	},
}

const analyzePrompt = "Analyze this food item deeply. Return valid JSON only. " +
	"Provide a clear 'verdict' (e.g., 'Superfood', 'Healthy', 'Moderate', 'Limit Usage', 'Avoid'). " +
	"Give a 'health_score' (1-100). Identify specific 'health_benefits' (e.g. 'High in Magnesium') " +
	"and 'harmful_warnings' (e.g. 'Contains Artificial Red Dye #40'). Include 'key_nutrients' as short badges. " +
	"Suggest 2-3 'better_alternatives' if the score is below 70. Also calculate calories and macros."

// AnalyzeFoodImage runs the structured nutrition analysis on a base64 JPEG.
// The returned entry carries the scanned image and an analysis timestamp;
// it is not yet logged anywhere.
func (s *CoachService) AnalyzeFoodImage(ctx context.Context, base64Image string) (model.NutritionData, error) {
	req := GenerateRequest{
		Contents: []Content{{
			Parts: []Part{
				{InlineData: &InlineData{MimeType: "image/jpeg", Data: base64Image}},
				{Text: analyzePrompt},
			},
		}},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   nutritionSchema,
		},
	}

	resp, err := s.client.GenerateContent(ctx, s.analysisModel, req)
	if err != nil {
		return model.NutritionData{}, fmt.Errorf("analyze food image: %w", err)
	}

	var data model.NutritionData
	if err := json.Unmarshal([]byte(resp.Text()), &data); err != nil {
		return model.NutritionData{}, fmt.Errorf("parse analysis: %w", err)
	}

	data.ScannedImage = "data:image/jpeg;base64," + base64Image
	data.Timestamp = s.now()
	return data, nil
}

// SpeakNutritionSummary renders the verdict as speech and returns base64
// PCM audio.
func (s *CoachService) SpeakNutritionSummary(ctx context.Context, data model.NutritionData) (string, error) {
	prompt := fmt.Sprintf(
		`Say in a professional but friendly nutrition coach voice: "I've analyzed your meal. It scores a %d out of 100. My verdict: %s. It provides about %d calories. %s"`,
		data.HealthScore, data.Verdict, data.Calories, data.Motivation,
	)

	req := GenerateRequest{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
		GenerationConfig: &GenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &SpeechConfig{
				VoiceConfig: &VoiceConfig{
					PrebuiltVoiceConfig: &PrebuiltVoiceConfig{VoiceName: "Kore"},
				},
			},
		},
	}

	resp, err := s.client.GenerateContent(ctx, s.ttsModel, req)
	if err != nil {
		return "", fmt.Errorf("speak summary: %w", err)
	}

	audio := resp.FirstInlineData()
	if audio == nil {
		return "", fmt.Errorf("speak summary: no audio in response")
	}
	return audio.Data, nil
}

// AnalyzePantry audits a fridge or pantry photo.
func (s *CoachService) AnalyzePantry(ctx context.Context, base64Image string) (model.PantryReport, error) {
	req := GenerateRequest{
		Contents: []Content{{
			Parts: []Part{
				{InlineData: &InlineData{MimeType: "image/jpeg", Data: base64Image}},
				{Text: "Analyze the contents of this fridge or pantry. Detect all food items visible. " +
					"Grade the overall healthiness and suggest one immediate recipe. Return valid JSON only."},
			},
		}},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema: &Schema{
				Type: TypeObject,
				Properties: map[string]*Schema{
					"grade":               {Type: TypeString, Enum: []string{"A", "B", "C", "D", "F"}},
					"items_found":         {Type: TypeArray, Items: &Schema{Type: TypeString}},
					"top_recommendations": {Type: TypeArray, Items: &Schema{Type: TypeString}},
					"suggested_recipe": {
						Type: TypeObject,
						Properties: map[string]*Schema{
							"name":        {Type: TypeString},
							"ingredients": {Type: TypeArray, Items: &Schema{Type: TypeString}},
						},
					},
				},
				Required: []string{"grade", "items_found", "top_recommendations", "suggested_recipe"},
			},
		},
	}

	resp, err := s.client.GenerateContent(ctx, s.analysisModel, req)
	if err != nil {
		return model.PantryReport{}, fmt.Errorf("analyze pantry: %w", err)
	}

	var report model.PantryReport
	if err := json.Unmarshal([]byte(resp.Text()), &report); err != nil {
		return model.PantryReport{}, fmt.Errorf("parse pantry report: %w", err)
	}
	return report, nil
}

var mealPlanSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"meals": {
			Type: TypeArray,
			Items: &Schema{
				Type: TypeObject,
				Properties: map[string]*Schema{
					"time":        {Type: TypeString, Description: "Meal number or time"},
					"title":       {Type: TypeString},
					"description": {Type: TypeString},
					"calories":    {Type: TypeNumber},
					"macros": {
						Type: TypeObject,
						Properties: map[string]*Schema{
							"p": {Type: TypeNumber},
							"c": {Type: TypeNumber},
							"f": {Type: TypeNumber},
						},
					},
				},
			},
		},
		"daily_tip": {Type: TypeString},
	},
	Required: []string{"meals", "daily_tip"},
}

// GenerateMealPlan builds a one-day, four-meal plan sized to the user's
// calorie goal.
func (s *CoachService) GenerateMealPlan(ctx context.Context, user model.UserProfile) (model.MealPlan, error) {
	prompt := fmt.Sprintf(
		"Generate a 1-day meal plan for a %d year old weighing %dkg with a goal of %d calories. "+
			"Provide 4 meals (Breakfast, Lunch, Dinner, Snack).",
		user.Stats.Age, user.Stats.Weight, user.Goals.Calories,
	)
	return s.mealPlan(ctx, prompt)
}

// GenerateMealPlanFromIngredients builds a five-meal plan constrained to
// what the pantry scan found.
func (s *CoachService) GenerateMealPlanFromIngredients(ctx context.Context, ingredients []string, user model.UserProfile) (model.MealPlan, error) {
	prompt := fmt.Sprintf(
		"Generate a 5-meal plan using primarily these ingredients: %s. "+
			"The user is %dyo, %dkg, aiming for %d cals. Meals should be healthy and creative. Return valid JSON.",
		strings.Join(ingredients, ", "), user.Stats.Age, user.Stats.Weight, user.Goals.Calories,
	)
	return s.mealPlan(ctx, prompt)
}

func (s *CoachService) mealPlan(ctx context.Context, prompt string) (model.MealPlan, error) {
	req := GenerateRequest{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   mealPlanSchema,
		},
	}

	resp, err := s.client.GenerateContent(ctx, s.analysisModel, req)
	if err != nil {
		return model.MealPlan{}, fmt.Errorf("generate meal plan: %w", err)
	}

	var plan model.MealPlan
	if err := json.Unmarshal([]byte(resp.Text()), &plan); err != nil {
		return model.MealPlan{}, fmt.Errorf("parse meal plan: %w", err)
	}
	return plan, nil
}

// GenerateWorkout builds a workout calibrated to the user's remaining
// calories for the day. A large remainder earns a high intensity session,
// otherwise a light one.
func (s *CoachService) GenerateWorkout(ctx context.Context, user model.UserProfile, remainingCalories int) (model.WorkoutPlan, error) {
	intensity := "light"
	if remainingCalories > 500 {
		intensity = "high intensity"
	}
	prompt := fmt.Sprintf(
		"The user has %d calories remaining today. Generate a %s workout plan for a %d year old. Return valid JSON.",
		remainingCalories, intensity, user.Stats.Age,
	)

	req := GenerateRequest{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema: &Schema{
				Type: TypeObject,
				Properties: map[string]*Schema{
					"title":          {Type: TypeString},
					"type":           {Type: TypeString},
					"total_duration": {Type: TypeString},
					"exercises": {
						Type: TypeArray,
						Items: &Schema{
							Type: TypeObject,
							Properties: map[string]*Schema{
								"name":            {Type: TypeString},
								"duration":        {Type: TypeString},
								"instructions":    {Type: TypeString},
								"target_calories": {Type: TypeNumber},
							},
						},
					},
				},
			},
		},
	}

	resp, err := s.client.GenerateContent(ctx, s.analysisModel, req)
	if err != nil {
		return model.WorkoutPlan{}, fmt.Errorf("generate workout: %w", err)
	}

	var plan model.WorkoutPlan
	if err := json.Unmarshal([]byte(resp.Text()), &plan); err != nil {
		return model.WorkoutPlan{}, fmt.Errorf("parse workout: %w", err)
	}
	return plan, nil
}

// GetRecoveryProtocol scores sleep readiness from self-reported sleep data.
func (s *CoachService) GetRecoveryProtocol(ctx context.Context, sleep model.SleepData, user model.UserProfile) (model.RecoveryProtocol, error) {
	prompt := fmt.Sprintf(
		"Analyze sleep readiness for a %dyo weighing %dkg. Last night: %.1fh sleep, %d/10 quality, %d/10 stress. Return valid JSON.",
		user.Stats.Age, user.Stats.Weight, sleep.Hours, sleep.Quality, sleep.StressLevel,
	)

	req := GenerateRequest{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema: &Schema{
				Type: TypeObject,
				Properties: map[string]*Schema{
					"readiness_score":         {Type: TypeNumber},
					"activity_recommendation": {Type: TypeString},
					"nutrition_focus":         {Type: TypeString},
					"supplement_tips":         {Type: TypeArray, Items: &Schema{Type: TypeString}},
				},
				Required: []string{"readiness_score", "activity_recommendation", "nutrition_focus", "supplement_tips"},
			},
		},
	}

	resp, err := s.client.GenerateContent(ctx, s.analysisModel, req)
	if err != nil {
		return model.RecoveryProtocol{}, fmt.Errorf("recovery protocol: %w", err)
	}

	var protocol model.RecoveryProtocol
	if err := json.Unmarshal([]byte(resp.Text()), &protocol); err != nil {
		return model.RecoveryProtocol{}, fmt.Errorf("parse recovery protocol: %w", err)
	}
	return protocol, nil
}

// FindSubstitution suggests a diet-compatible swap for an ingredient.
func (s *CoachService) FindSubstitution(ctx context.Context, ingredient, diet string) (model.Substitution, error) {
	prompt := fmt.Sprintf("Suggest a %s alternative for %q. Return valid JSON.", diet, ingredient)

	req := GenerateRequest{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema: &Schema{
				Type: TypeObject,
				Properties: map[string]*Schema{
					"original":    {Type: TypeString},
					"replacement": {Type: TypeString},
					"benefits":    {Type: TypeString},
					"macros_diff": {Type: TypeString},
				},
				Required: []string{"original", "replacement", "benefits", "macros_diff"},
			},
		},
	}

	resp, err := s.client.GenerateContent(ctx, s.analysisModel, req)
	if err != nil {
		return model.Substitution{}, fmt.Errorf("find substitution: %w", err)
	}

	var sub model.Substitution
	if err := json.Unmarshal([]byte(resp.Text()), &sub); err != nil {
		return model.Substitution{}, fmt.Errorf("parse substitution: %w", err)
	}
	return sub, nil
}

// SearchFoodFact answers a free-form food question grounded in web search
// and returns the sources the answer cited.
func (s *CoachService) SearchFoodFact(ctx context.Context, query string) (model.FoodFact, error) {
	req := GenerateRequest{
		Contents: []Content{{Parts: []Part{{Text: query}}}},
		Tools:    []Tool{{GoogleSearch: &GoogleSearch{}}},
	}

	resp, err := s.client.GenerateContent(ctx, s.analysisModel, req)
	if err != nil {
		return model.FoodFact{}, fmt.Errorf("food fact search: %w", err)
	}

	fact := model.FoodFact{Text: resp.Text()}
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk.Web == nil {
				continue
			}
			fact.Sources = append(fact.Sources, model.FactSource{
				Title: chunk.Web.Title,
				URI:   chunk.Web.URI,
			})
		}
	}
	return fact, nil
}

// GenerateShoppingList consolidates a meal plan into a grocery list
// grouped by store section.
func (s *CoachService) GenerateShoppingList(ctx context.Context, plan model.MealPlan) ([]model.GroceryCategory, error) {
	meals, err := json.Marshal(plan.Meals)
	if err != nil {
		return nil, fmt.Errorf("marshal meals: %w", err)
	}
	prompt := fmt.Sprintf(
		"Based on these meals, create a consolidated grocery shopping list categorized by section: %s. Return valid JSON.",
		meals,
	)

	req := GenerateRequest{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema: &Schema{
				Type: TypeArray,
				Items: &Schema{
					Type: TypeObject,
					Properties: map[string]*Schema{
						"category": {Type: TypeString},
						"items":    {Type: TypeArray, Items: &Schema{Type: TypeString}},
					},
					Required: []string{"category", "items"},
				},
			},
		},
	}

	resp, err := s.client.GenerateContent(ctx, s.analysisModel, req)
	if err != nil {
		return nil, fmt.Errorf("generate shopping list: %w", err)
	}

	var list []model.GroceryCategory
	if err := json.Unmarshal([]byte(resp.Text()), &list); err != nil {
		return nil, fmt.Errorf("parse shopping list: %w", err)
	}
	return list, nil
}

// TransformToHealthyMeal redraws a meal photo as a healthier version of
// itself and returns a data URL for the generated image.
func (s *CoachService) TransformToHealthyMeal(ctx context.Context, base64Image string) (string, error) {
	req := GenerateRequest{
		Contents: []Content{{
			Parts: []Part{
				{InlineData: &InlineData{MimeType: "image/jpeg", Data: base64Image}},
				{Text: "Redraw this exact meal but as a ultra-healthy, nutrient-dense version of itself. " +
					"Use clean plating and fresh ingredients. Cinematic lighting."},
			},
		}},
		GenerationConfig: &GenerationConfig{
			ImageConfig: &ImageConfig{AspectRatio: "1:1"},
		},
	}

	resp, err := s.client.GenerateContent(ctx, s.imageModel, req)
	if err != nil {
		return "", fmt.Errorf("transform meal: %w", err)
	}

	img := resp.FirstInlineData()
	if img == nil {
		return "", fmt.Errorf("transform meal: no image in response")
	}
	return "data:image/png;base64," + img.Data, nil
}
