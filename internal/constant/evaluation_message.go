package constant

const (
	MessageAskUpload          = "Please upload the certificate you want me to evaluate. I need a document before I can validate anything."
	MessageAskCriteria        = "Got your document. What should I check? For example: \"the expiry date must be after 2026 and it must be issued by the FAA\"."
	MessageAskRestateCriteria = "I received a new document, so I cleared the previous criteria and results. Please tell me again what this certificate should satisfy."
	MessageClarifyCriteria    = "I couldn't work out any criteria from that. Could you describe what the certificate must satisfy, such as an expiry date, issuing agency or holder name?"
	MessageCriteriaStored     = "Thanks, I'll check: %s. Shall I run the validation now?"
	MessageReuploadDocument   = "I couldn't read that document. Please upload it again, ideally as a PDF or plain text file."
	MessageStillProcessing    = "Your document is still being processed. Please try again in a moment."
	MessageIndexingFailed     = "I couldn't index your document. Please upload it again."
	MessageValidationRetry    = "I had trouble judging the document against your criteria. Please try again."
	MessageCollaboratorDown   = "The evaluation service is not responding right now. Please try again in a moment."
	MessageNoCriteria         = "There are no criteria to validate against yet. What should the certificate satisfy?"
	MessageAskNewCriteria     = "Okay, I cleared the current criteria and results. What should I check instead?"
	MessageClosing            = "Thanks for using the certificate evaluator. Goodbye!"
	MessageSessionClosed      = "This conversation has ended. Say \"restart\" to continue."
	MessageRestarted          = "Welcome back! Let's continue where we left off."
	MessageNoResultsYet       = "There are no validation results yet."
	MessageGeneralFallback    = "I can evaluate a certificate against criteria you describe. Upload a document and tell me what it must satisfy."
	MessageNothingChanged     = "Those changes match the current criteria, so I validated again with the same version."
	MessageInternalError      = "Something went wrong on my side. Please try again."
)
