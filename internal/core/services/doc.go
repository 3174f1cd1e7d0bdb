// Package services implements the core business logic for Lenden.
//
// Services implement the driving ports and depend only on the driven
// ports, never on concrete adapters:
//
//   - Retriever: embeds a question and ranks chunks from the vector index
//   - AssemblePrompt: deterministic grounded prompt construction
//   - AssistantService: the per-request orchestration pipeline
package services
