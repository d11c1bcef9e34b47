package core

// prompts.go defines the prompts used by the query analysis and response
// phrasing steps.  Keeping these in a separate file makes them easy to tweak
// without touching the rest of the code.

const (
	// analysisPrompt asks the model to classify a user query into one of
	// the supported task types and pull out the symptom list or disease
	// name.  The model must answer with bare JSON; parseAnalysis strips
	// code fences before decoding in case it does not.
	analysisPrompt = `You are a medical query analyzer with access to the user's health context.

User's Health Context:
%s

Analyze the following user query and determine:
1. What type of query is this?
   - symptom_to_disease: the user is describing symptoms and wants to know possible diseases
   - disease_to_precaution: the user is asking about precautions for a specific disease
   - disease_to_symptom: the user is asking about symptoms of a specific disease
   - general_health: anything else

2. Extract the relevant information:
   - If symptom_to_disease: extract the list of symptoms mentioned
   - If disease_to_precaution or disease_to_symptom: extract the disease name

User Query: "%s"

Respond ONLY with a JSON object in this exact format:
{
    "task_type": "symptom_to_disease or disease_to_precaution or disease_to_symptom or general_health",
    "extracted_info": ["list", "of", "symptoms or disease name"]
}`

	// formatPrompt asks the model to phrase a structured lookup result as a
	// short, empathetic reply, personalized with the user's memory context.
	formatPrompt = `You are a helpful and empathetic health assistant. Use the following context about the user to provide personalized responses.

User's Health Context:
%s

Current Query: "%s"

Task Type: %s

System Output: %s

Please create a natural, empathetic, short and informative response for the user based on this information.
Guidelines:
- Be clear and very concise
- Acknowledge the user's query and use the context to personalize the response
- Format the information in a readable way
- Be supportive and non-alarming
- Always suggest consulting a healthcare professional for a proper diagnosis

Respond with ONLY the formatted message to the user (no JSON, no extra formatting).`
)
