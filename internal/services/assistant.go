package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harentsoaR/medivault-api/internal/models"
)

// Assistant answers health questions from fixed templates chosen by keyword.
// It does no inference.
type Assistant struct {
	delay time.Duration
}

func NewAssistant(delay time.Duration) *Assistant {
	return &Assistant{delay: delay}
}

type replyRule struct {
	keywords []string
	render   func(p *models.Patient) string
}

var replyRules = []replyRule{
	{[]string{"recommendation", "advice"}, recommendationReply},
	{[]string{"symptom", "pain", "fever"}, func(*models.Patient) string { return symptomReply }},
	{[]string{"medicine", "medication", "drug"}, medicationReply},
	{[]string{"health", "wellness"}, wellnessReply},
}

// Reply returns the template for the first rule whose keyword appears in
// query. patient may be nil.
func (a *Assistant) Reply(ctx context.Context, query string, patient *models.Patient) (string, error) {
	if err := simulateLatency(ctx, a.delay); err != nil {
		return "", err
	}
	return Respond(query, patient), nil
}

// Respond is the pure template selection behind Reply.
func Respond(query string, patient *models.Patient) string {
	q := strings.ToLower(query)
	for _, rule := range replyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.render(patient)
			}
		}
	}
	return defaultReply
}

func recommendationReply(p *models.Patient) string {
	var b strings.Builder
	b.WriteString(`Based on your profile, here are personalized recommendations:

- Physical Activity: Aim for 30 minutes of moderate exercise daily
- Hydration: Drink 8-10 glasses of water throughout the day
- Nutrition: Include plenty of fruits, vegetables, and lean proteins
- Sleep: Maintain 7-9 hours of quality sleep each night
- Stress Management: Practice meditation or deep breathing exercises
`)
	if p != nil && p.BloodGroup != "" {
		fmt.Fprintf(&b, "\nAs someone with blood group %s, consider iron-rich foods in your diet.\n", p.BloodGroup)
	}
	b.WriteString("\nWould you like specific advice on any of these areas?")
	return b.String()
}

const symptomReply = `I understand you're experiencing symptoms. While I can provide general information, please remember that serious symptoms require professional medical attention.

Common symptom patterns:
- Fever + Headache: Could indicate viral infection, stay hydrated and rest
- Chest pain: Seek immediate medical attention if severe
- Persistent cough: May need respiratory evaluation
- Abdominal pain: Location and severity matter for diagnosis

When to seek immediate care:
- Difficulty breathing
- Severe chest pain
- High fever (>103°F)
- Severe abdominal pain

Please consult your healthcare provider for proper diagnosis and treatment. Would you like general wellness tips instead?`

func medicationReply(p *models.Patient) string {
	var b strings.Builder
	b.WriteString(`I can provide general medication information:

Important reminders:
- Take medications as prescribed by your doctor
- Follow the correct timing and dosage
- Check if medication should be taken with or without food
- Never share prescription medications
- Stay hydrated when taking most medications

Common interactions to be aware of:
- Antibiotics + Dairy products (may reduce effectiveness)
- Blood thinners + Aspirin (increased bleeding risk)
- Heart medications + Grapefruit (can be dangerous)
`)
	if p != nil && p.Allergies != "" {
		fmt.Fprintf(&b, "\nYour recorded allergies: %s\n", p.Allergies)
	}
	b.WriteString("\nAlways consult your pharmacist or doctor before starting new medications. What specific medication information do you need?")
	return b.String()
}

func wellnessReply(p *models.Patient) string {
	var b strings.Builder
	b.WriteString(`Here's a comprehensive wellness overview:

Daily Health Habits:
- Start your day with hydration and light stretching
- Eat balanced meals with proper portions
- Take regular breaks for movement if you have a desk job
- Practice mindfulness or meditation for mental health

Preventive Care:
- Schedule regular checkups with your primary care physician
- Don't neglect dental health, visit your dentist regularly
- Get regular eye exams
- Stay up to date with vaccinations
`)
	if p != nil {
		fmt.Fprintf(&b, "\nYour Profile Summary:\nBlood Group: %s\nAge: %d years\n", p.BloodGroup, p.Age)
		if bmi := BMI(*p); bmi != nil {
			fmt.Fprintf(&b, "BMI: %.1f\n", *bmi)
		} else {
			b.WriteString("Complete your measurements for BMI calculation\n")
		}
	}
	b.WriteString("\nWhat aspect of your health would you like to focus on?")
	return b.String()
}

const defaultReply = `I'm here to help with your health-related questions! I can assist with:

- Symptom Analysis: Describe symptoms for possible causes
- Medication Info: General drug information and interactions
- Health Recommendations: Personalized wellness advice
- Nutrition Guidance: Diet and lifestyle suggestions
- Exercise Tips: Safe workout recommendations

Please ask me about any health topic, and I'll do my best to provide helpful, accurate information. Remember, for serious medical concerns, always consult with a healthcare professional.

What would you like to know more about?`
