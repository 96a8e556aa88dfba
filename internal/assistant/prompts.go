package assistant

import "fmt"

const ocrPrompt = "Transcribe this medical document exactly. Output ONLY the text found."

const xrayPrompt = `You are an expert Radiologist and Orthopedic Surgeon.
Analyze this medical scan.

TASK:
1. DETECT: Identify any fractures, dislocations, or abnormalities.
2. LOCATE: Specifically describe WHERE the problem is (e.g., "Distal 1/3rd of the radius").
3. PRESCRIBE: Suggest standard immediate treatment guidelines (First Aid/Splinting) and next steps.

OUTPUT FORMAT (Return ONLY raw JSON):
{
    "finding": "Short medical diagnosis (e.g., Tibia Fracture)",
    "location": "Specific location description",
    "severity": "Low / Moderate / Severe",
    "treatment_plan": [
        "Step 1: ...",
        "Step 2: ..."
    ],
    "is_normal": false
}

If the image is Normal, set "is_normal": true and "finding": "No abnormalities detected".`

func prescriptionSummaryPrompt(extractedText string) string {
	return fmt.Sprintf(`You are an expert medical AI. Analyze the following extracted medical text.

EXTRACTED TEXT:
%s

OUTPUT FORMAT (Return ONLY raw JSON):
{
    "patient_summary": "Brief summary...",
    "differential_diagnoses": [
        "1. Most likely: [Condition] (Reason)",
        "2. Potential alternative: [Condition] (Reason)"
    ],
    "medicines": ["List of medicines..."],
    "advice": "Non-medicine advice..."
}`, extractedText)
}

func queryPrompt(contextText, question string) string {
	return fmt.Sprintf(`You are an expert medical assistant.
Use the patient context below to answer the doctor's question.

INSTRUCTIONS:
1. Answer from the context whenever it contains the information, quoting the
   exact text from the document as evidence.
2. If the context is insufficient, you may answer from general medical
   knowledge, but that answer MUST begin with
   "General guidance (not patient-specific):".

Context: %s

Question: %s`, contextText, question)
}
