package nodes

// Graph node keys.
const (
	NodeScreening       = "screening"
	NodeCrisisResponder = "crisis_responder"
	NodePromptAssembler = "prompt_assembler"
	NodeResponder       = "responder"
)
