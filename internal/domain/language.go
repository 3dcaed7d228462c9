package domain

// Language tags. The knowledge base is authored in the pivot language.
const (
	LanguageZulu    = "zu"
	LanguageEnglish = "en"
)

// Stage names a step of the voice query pipeline.
type Stage string

const (
	StageDecode       Stage = "decode"
	StageTranscribe   Stage = "transcribe"
	StageTranslateIn  Stage = "translate_in"
	StageAdvice       Stage = "advice"
	StageTranslateOut Stage = "translate_out"
	StageSynthesize   Stage = "synthesize"
	StageStore        Stage = "store"
)
