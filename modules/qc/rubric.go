package qc

// RubricPrompt - phase 3 비전 모델에 넘기는 고정 평가 루브릭
// 체크 항목은 model.QCChecks와 1:1 대응
const RubricPrompt = "[COLORING BOOK QUALITY CONTROL]\n" +
	"You are evaluating a candidate coloring-book page for the Poppiconni brand.\n" +
	"Inspect the attached image against every criterion below.\n" +
	"\n[CRITERIA]\n" +
	"1. brand_mark_present: the Poppiconni mascot (round-faced puppy, floppy ears) appears as the main character\n" +
	"2. brand_text_legible: the word \"Poppiconni\" is written exactly once and is clearly readable\n" +
	"3. line_art_style: pure black-and-white line art - bold clean outlines, no shading, no gradients, no color fills\n" +
	"4. colorability: shapes are closed with large open regions a child can color\n" +
	"5. content_safe: no violence, weapons, scary imagery, romantic/adult themes, real brands or celebrities\n" +
	"\n[OUTPUT FORMAT]\n" +
	"Respond with ONLY this JSON object, no markdown fences, no commentary:\n" +
	"{\n" +
	"  \"confidence_score\": 0.0,\n" +
	"  \"checks\": {\n" +
	"    \"brand_mark_present\": true,\n" +
	"    \"brand_text_legible\": true,\n" +
	"    \"line_art_style\": true,\n" +
	"    \"colorability\": true,\n" +
	"    \"content_safe\": true\n" +
	"  },\n" +
	"  \"issues\": [\"short explanation for every failed check\"]\n" +
	"}\n" +
	"confidence_score is your overall [0,1] confidence that this page is publishable as-is.\n"
