package agents

import (
	"fmt"

	"github.com/yuribarsotti/agentlab/agent"
	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/model"
	"github.com/yuribarsotti/agentlab/tool"
)

// CollectUserInfoTool is the clinic intake tool name.
const CollectUserInfoTool = "collect_user_info"

const clinicInstructions = `You are a helpful customer care agent for a clinic. Follow this workflow:
1. Welcome the user warmly saying about the clinic and ask for their information.
2. Collect their name, telephone and cpf if not already stored
3. Ask about their issue or how you can help
4. Provide assistance or create support tickets as needed
5. Use state_manager to remember relevant facts about the patient (store_memory) and to track conversation_stage

Current user info: {user_name}, {user_cpf}, {user_phone}`

// ClinicDefaultState is the initial session state of a clinic conversation.
func ClinicDefaultState() map[string]any {
	return map[string]any{
		"user_name":          "",
		"user_cpf":           "",
		"user_phone":         "",
		"conversation_stage": "welcome",
	}
}

type userInfo struct {
	Name  string `json:"name" description:"Patient full name"`
	CPF   string `json:"cpf" description:"Patient CPF (Brazilian taxpayer id)"`
	Phone string `json:"phone" description:"Patient telephone number"`
}

// NewCollectUserInfoTool stores the patient's details in session state.
func NewCollectUserInfoTool() tool.Tool {
	return tool.NewTypedTool(CollectUserInfoTool, "Collect user information for support ticket.",
		func(tc *core.ToolContext, in userInfo) (any, error) {
			tc.SetState("user_name", in.Name)
			tc.SetState("user_cpf", in.CPF)
			tc.SetState("user_phone", in.Phone)
			tc.SetState("conversation_stage", "collected")

			return fmt.Sprintf("Collected info - Name: %s, Cpf: %s, Phone: %s", in.Name, in.CPF, in.Phone), nil
		})
}

// NewClinicAgent is the clinic customer care agent. Its instructions read
// the patient details from session state; patient memories go through the
// state tool into the run's memory store.
func NewClinicAgent(llm model.Model) *agent.ModelAgent {
	return agent.NewModelAgent("clinic_agent", llm, func(o *agent.ModelAgentOptions) {
		o.Instruction = agent.NewInstructionFromText(clinicInstructions)
		o.Tools = []tool.Tool{NewCollectUserInfoTool(), tool.NewStateTool()}
		o.HistoryRuns = 3
		o.Markdown = true
	})
}

// NewClinicSession creates a session seeded with ClinicDefaultState.
func NewClinicSession(store core.SessionStore, sessionID, userID string) (*core.Session, error) {
	sess, err := store.Create(sessionID, userID)
	if err != nil {
		return nil, err
	}

	if err := store.ApplyDelta(sessionID, ClinicDefaultState()); err != nil {
		return nil, err
	}

	sess.ApplyStateDelta(ClinicDefaultState())

	return sess, nil
}
