package document

// Page is the ordered list of paragraphs extracted from one logical page.
// Paragraphs are trimmed and non-empty. Pages are 1-indexed by position.
type Page []string

// Chunk is a page-scoped, word-bounded span of consecutive paragraphs.
type Chunk struct {
	Page int    `json:"page"` // 1-indexed source page
	Text string `json:"text"` // paragraphs joined by single spaces
}

// Prediction is the binary label attached to a classified chunk.
type Prediction string

const (
	AIGenerated  Prediction = "AI-generated"
	HumanWritten Prediction = "Human-written"
)

// Detection is a Chunk annotated with classifier output.
type Detection struct {
	Page          int        `json:"page"`
	Text          string     `json:"paragraph"`
	WordCount     int        `json:"word_count"`
	ProbabilityAI float64    `json:"probability_AI"`
	Prediction    Prediction `json:"prediction"`
}

// Report is the result of analyzing one document.
//
// Score is a confidence-mass ratio in [0,100]: the share of total AI
// probability carried by chunks labelled AI-generated. It is not a calibrated
// probability that the document was machine-written.
type Report struct {
	Score       float64     `json:"overall_score"`
	Threshold   float64     `json:"threshold"`
	Pages       int         `json:"pages"`
	Chunks      int         `json:"chunks"`
	Words       int         `json:"words"`
	AIChunks    int         `json:"ai_chunks"`
	HumanChunks int         `json:"human_chunks"`
	Detections  []Detection `json:"detections"`
}
