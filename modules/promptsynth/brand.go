package promptsynth

// BrandConstraintBlock - 모든 생성 프롬프트에 포함되는 고정 브랜드 제약 블록
// 컬러링북 라인아트 규칙 + 금지 콘텐츠 + 필수 Poppiconni 브랜드 요소
const BrandConstraintBlock = "[COLORING BOOK LINE ART STYLE]\n" +
	"Generate a children's coloring book illustration.\n" +
	"Style: Bold clean black outlines on pure white background, NO shading, NO gradients, NO filled colors.\n" +
	"All shapes closed and colorable - large open regions a child can fill with crayons.\n" +
	"Line weight: thick, consistent, printable at A4.\n" +
	"\n[MANDATORY BRAND ELEMENTS]\n" +
	"✓ Poppiconni the mascot appears as the main character (round-faced puppy, floppy ears, button nose)\n" +
	"✓ The word \"Poppiconni\" written once, clearly legible, in simple rounded lettering\n" +
	"✓ Friendly, cheerful expression and posture\n" +
	"\n[CRITICAL REQUIREMENTS]\n" +
	"✓ ONE unified scene - no split panels, no collage layouts\n" +
	"✓ Pure black-and-white line art only\n" +
	"❌ NO photorealistic rendering, NO 3D render, NO painterly shading\n" +
	"❌ NO color fills of any kind\n" +
	"❌ NO text other than the brand word\n" +
	"\n[FORBIDDEN CONTENT]\n" +
	"❌ NO violence, weapons, blood, or injury\n" +
	"❌ NO scary, horror, or disturbing imagery\n" +
	"❌ NO romantic or adult themes\n" +
	"❌ NO real brands, logos, or celebrities\n"
