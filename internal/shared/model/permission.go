package model

// ============================================================================
// 权限模型：模块 × 动作 的封闭枚举 + 生效权限合并
// ============================================================================

// Module 后台功能模块（权限控制的最小单元）
type Module string

const (
	ModuleDashboard             Module = "dashboard"
	ModuleStudents              Module = "students"
	ModuleCourses               Module = "courses"
	ModuleBatches               Module = "batches"
	ModuleLiveClasses           Module = "liveClasses"
	ModuleLiveBatches           Module = "liveBatches"
	ModuleMockTests             Module = "mockTests"
	ModuleMockTestFeedback      Module = "mockTestFeedback"
	ModulePracticeTests         Module = "practiceTests"
	ModulePayments              Module = "payments"
	ModuleCoupons               Module = "coupons"
	ModuleNotifications         Module = "notifications"
	ModuleAnnouncements         Module = "announcements"
	ModulePopupAnnouncements    Module = "popupAnnouncements"
	ModuleLeads                 Module = "leads"
	ModuleReports               Module = "reports"
	ModuleFaculty               Module = "faculty"
	ModuleBlogs                 Module = "blogs"
	ModuleDemoVideos            Module = "demoVideos"
	ModuleStudyMaterials        Module = "studyMaterials"
	ModulePDFManagement         Module = "pdfManagement"
	ModuleDiscussions           Module = "discussions"
	ModuleBSchools              Module = "bschools"
	ModuleIIMPredictor          Module = "iimPredictor"
	ModuleResponseSheets        Module = "responseSheets"
	ModuleDownloads             Module = "downloads"
	ModuleGallery               Module = "gallery"
	ModuleScoreCards            Module = "scoreCards"
	ModuleSuccessStories        Module = "successStories"
	ModuleTopPerformers         Module = "topPerformers"
	ModuleCoursePurchaseContent Module = "coursePurchaseContent"
	ModuleCRM                   Module = "crm"
	ModuleBilling               Module = "billing"
	ModuleRoleManagement        Module = "roleManagement"
)

// AllModules 全部后台模块（顺序固定，用于遍历构造完整矩阵）
var AllModules = []Module{
	ModuleDashboard, ModuleStudents, ModuleCourses, ModuleBatches,
	ModuleLiveClasses, ModuleLiveBatches, ModuleMockTests, ModuleMockTestFeedback,
	ModulePracticeTests, ModulePayments, ModuleCoupons, ModuleNotifications,
	ModuleAnnouncements, ModulePopupAnnouncements, ModuleLeads, ModuleReports,
	ModuleFaculty, ModuleBlogs, ModuleDemoVideos, ModuleStudyMaterials,
	ModulePDFManagement, ModuleDiscussions, ModuleBSchools, ModuleIIMPredictor,
	ModuleResponseSheets, ModuleDownloads, ModuleGallery, ModuleScoreCards,
	ModuleSuccessStories, ModuleTopPerformers, ModuleCoursePurchaseContent,
	ModuleCRM, ModuleBilling, ModuleRoleManagement,
}

// Action 模块内可授权的动作
type Action string

const (
	ActionView    Action = "view"
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionExport  Action = "export"
	ActionApprove Action = "approve"
)

// AllActions 全部动作
var AllActions = []Action{
	ActionView, ActionCreate, ActionEdit, ActionDelete, ActionExport, ActionApprove,
}

// IsValidModule 判断模块名是否属于封闭枚举
func IsValidModule(m Module) bool {
	for _, mod := range AllModules {
		if mod == m {
			return true
		}
	}
	return false
}

// ActionSet 单个模块的部分授权集
//
// 字段使用 *bool：nil 表示"未设置"（回落到角色层），
// 显式 true/false 才参与合并。这与角色/自定义覆盖两层共用。
type ActionSet struct {
	View    *bool `json:"view,omitempty" bson:"view,omitempty"`
	Create  *bool `json:"create,omitempty" bson:"create,omitempty"`
	Edit    *bool `json:"edit,omitempty" bson:"edit,omitempty"`
	Delete  *bool `json:"delete,omitempty" bson:"delete,omitempty"`
	Export  *bool `json:"export,omitempty" bson:"export,omitempty"`
	Approve *bool `json:"approve,omitempty" bson:"approve,omitempty"`
}

// Get 返回指定动作的显式设置，未设置时 ok=false
func (s *ActionSet) Get(a Action) (value bool, ok bool) {
	if s == nil {
		return false, false
	}
	var p *bool
	switch a {
	case ActionView:
		p = s.View
	case ActionCreate:
		p = s.Create
	case ActionEdit:
		p = s.Edit
	case ActionDelete:
		p = s.Delete
	case ActionExport:
		p = s.Export
	case ActionApprove:
		p = s.Approve
	}
	if p == nil {
		return false, false
	}
	return *p, true
}

// PermissionMap 模块 → 部分授权集的映射（角色权限与自定义覆盖共用的存储形态）
type PermissionMap map[Module]*ActionSet

// PermissionMatrix 生效权限矩阵：每个模块 × 每个动作都有确定的布尔值
type PermissionMatrix map[Module]map[Action]bool

// Allows 鉴权判定：仅当显式为 true 时放行
func (m PermissionMatrix) Allows(mod Module, act Action) bool {
	actions, ok := m[mod]
	if !ok {
		return false
	}
	return actions[act]
}

// FullPermissionMatrix 返回全模块 × 全动作均为 true 的矩阵（superadmin 专用）
func FullPermissionMatrix() PermissionMatrix {
	matrix := make(PermissionMatrix, len(AllModules))
	for _, mod := range AllModules {
		actions := make(map[Action]bool, len(AllActions))
		for _, act := range AllActions {
			actions[act] = true
		}
		matrix[mod] = actions
	}
	return matrix
}

// emptyPermissionMatrix 全模块 × 全动作均为 false 的矩阵
func emptyPermissionMatrix() PermissionMatrix {
	matrix := make(PermissionMatrix, len(AllModules))
	for _, mod := range AllModules {
		actions := make(map[Action]bool, len(AllActions))
		for _, act := range AllActions {
			actions[act] = false
		}
		matrix[mod] = actions
	}
	return matrix
}

// EffectivePermissions 计算管理员的生效权限矩阵
//
// 合并规则（优先级从高到低）：
//  1. superadmin：全量放行，短路返回，角色与覆盖均不参与；
//  2. 自定义覆盖：仅显式设置（非 nil）的值无条件替换角色层；
//  3. 角色基线：角色中未出现的模块/动作视为 false，不与任何默认值合并。
//
// 不做缓存，每次请求重新计算：角色或覆盖的修改在下一次计算即生效。
// role 为管理员引用的角色记录，未配置角色时传 nil。
func EffectivePermissions(admin *AdminUser, role *Role) PermissionMatrix {
	if admin.UserType == AdminTypeSuperadmin {
		return FullPermissionMatrix()
	}

	matrix := emptyPermissionMatrix()

	// 角色基线
	if role != nil {
		applyPermissionLayer(matrix, role.Permissions)
	}

	// 自定义覆盖：显式设置的值胜出，未设置保留角色层
	applyPermissionLayer(matrix, admin.CustomPermissions)

	return matrix
}

// applyPermissionLayer 将一层部分授权叠加到矩阵上，仅显式值生效
func applyPermissionLayer(matrix PermissionMatrix, layer PermissionMap) {
	for mod, set := range layer {
		actions, ok := matrix[mod]
		if !ok {
			// 封闭枚举之外的模块名直接忽略
			continue
		}
		for _, act := range AllActions {
			if v, set := set.Get(act); set {
				actions[act] = v
			}
		}
	}
}

// BoolPtr 构造 *bool 的便捷函数（组装 ActionSet 时使用）
func BoolPtr(v bool) *bool {
	return &v
}
