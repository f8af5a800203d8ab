package extraction

import "form-digitizer/pkg/fields"

const userInstruction = "Extract the information from this registration form as specified."

const systemPrompt = `
# ROLE
You are a High-Precision Document OCR Specialist. Your task is to extract handwritten information from "English House Academy Summer Camp" registration forms and convert them into a structured JSON format.

# CONTEXT
The user is uploading images of a specific registration form. You must identify the fields even if the handwriting is messy.

# EXTRACTION RULES
1. DATA MAPPING: Extract information for the following keys:
   - admission_id (Found at the top right, format: EHA-3HC-...)
   - name
   - gender
   - age
   - qualification
   - medium
   - contact_no
   - whatsapp_no
   - address
   - initial_payment
   - date (Format: DD/MM/YYYY)
   - utr (Transaction ID for payments)
   - received_ac (Account details)
   - discount
   - remaining_amount

2. BLANK FIELDS: If a field is empty in the image, return an empty string "".
3. UNCERTAINTY: If the handwriting is completely illegible, return "CHECK_MANUALLY".
4. CLEANING: Remove any extra symbols like ":" or "_" that might be part of the form's design.

# OUTPUT FORMAT
Return ONLY a valid JSON object matching the requested schema.
`

// formSchema declares every canonical field as a required string.
func formSchema() responseSchema {
	props := make(map[string]responseSchema, len(fields.Names))
	for _, n := range fields.Names {
		props[n] = responseSchema{Type: "STRING"}
	}
	required := make([]string, len(fields.Names))
	copy(required, fields.Names)
	return responseSchema{
		Type:       "OBJECT",
		Properties: props,
		Required:   required,
	}
}

func buildRequest(imageBase64 string) generateRequest {
	return generateRequest{
		SystemInstruction: content{Parts: []part{{Text: systemPrompt}}},
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: "image/jpeg", Data: imageBase64}},
				{Text: userInstruction},
			},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   formSchema(),
		},
	}
}
