package constant

const (
	// IntentRouterPrompt classifies one user turn. Args: status, has criteria,
	// recent history, user message.
	IntentRouterPrompt = `You route messages in a certificate evaluation assistant.

Current state: %s
Criteria defined: %t

Recent conversation:
%s

User message: "%s"

Pick exactly one intent:
- "provide_criteria": the user describes what the certificate must satisfy
- "new_criteria": the user wants to discard the current criteria and define different ones
- "reevaluate": the user wants to change some criteria and validate again
- "results_question": the user asks about the latest validation result
- "proceed": the user agrees to run or re-run validation ("yes", "go ahead", "validate")
- "general": greetings, questions about the assistant, anything else

Output MUST be valid JSON: {"intent": "<one of the above>", "confidence": 0.0-1.0}`

	// CriteriaExtractionPrompt turns free text into a criteria object. Args: user message.
	CriteriaExtractionPrompt = `Extract certificate evaluation criteria from the user's message.

User message: "%s"

Rules:
1. Each criterion is a short camelCase name (e.g. "expiryDate", "issuingAgency", "holderName").
2. "weight" is the relative importance between 0 and 1. Omit it if the user gives no hint.
3. "required" is true only if the user says the criterion must hold for the certificate to pass.
4. "value" is the expected value if the user states one, otherwise null.
5. "description" restates the user's intent in one sentence.
6. "threshold" is a pass mark between 0 and 100 if the user gives one, otherwise null.
7. If the message contains no criteria at all, return an empty "structured" object and an empty description.

Output MUST be valid JSON:
{"structured": {"<name>": {"weight": 0.5, "required": true, "value": null}}, "description": "...", "threshold": null}`

	// CriteriaUpdatePrompt extracts a partial update. Args: current criteria JSON, user message.
	CriteriaUpdatePrompt = `The user wants to change the evaluation criteria below.

Current criteria:
%s

User message: "%s"

Return ONLY the criteria entries that change, with only the fields that change.
Use the existing names when the user refers to an existing criterion. New criteria get full entries.
Set "threshold" only if the user changes the pass mark, otherwise null.

Output MUST be valid JSON:
{"structured": {"<name>": {"<field>": <new value>}}, "description": "...", "threshold": null}`

	// ValidationJudgePrompt asks for one check per criterion. Args: criteria
	// JSON, description, document context.
	ValidationJudgePrompt = `You verify a certificate against evaluation criteria.

Criteria:
%s

Criteria description: %s

Document context:
%s

Instructions:
1. Judge each criterion strictly from the document context above. Never use general knowledge.
2. If the context does not mention a criterion, mark it as not passed and say so in "reason".
3. "expected" is the expected value from the criteria (or null), "found" is what the document says (or null).
4. "confidence" is between 0 and 1.
5. Return exactly one check per criterion, using the criterion names as given.

Output MUST be valid JSON:
{"checks": [{"criterion": "<name>", "expected": null, "found": null, "passed": false, "confidence": 0.0, "reason": "..."}]}`

	// ConversationSystemPrompt frames free-text replies. Args: status, summary of the latest result.
	ConversationSystemPrompt = `You are a friendly assistant that evaluates certificate documents.
You help the user upload a certificate, define evaluation criteria, and understand validation results.
Keep replies short (2-4 sentences) and never invent facts about the document.

Current state: %s
Latest validation result: %s`
)
