package constants

// StrategyID names an extraction strategy: <starting_file>_<method>_<model>.
type StrategyID string

const (
	StrategyFileImageOpenAI StrategyID = "file_image_openai" // pages as images straight into the model
	StrategyFileTextOpenAI  StrategyID = "file_text_openai"  // OCR pages to text first
	StrategyFileTextOllama  StrategyID = "file_text_ollama"  // OCR text via an OpenAI-compatible local model
)

// Strategies lists every implemented strategy with a short description,
// in the order the API reports them.
var Strategies = []struct {
	ID          StrategyID
	Description string
}{
	{StrategyFileImageOpenAI, "Rasterize pages and extract fields from page images"},
	{StrategyFileTextOpenAI, "Rasterize, OCR to text, then extract fields from text"},
	{StrategyFileTextOllama, "Text extraction against an OpenAI-compatible local endpoint"},
}
