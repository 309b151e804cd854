package renderer

import (
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
)

// eventTemplates holds the compiled templates for one event type. Subject,
// sms and chat are plain text; the email body is HTML-escaped.
type eventTemplates struct {
	subject *texttemplate.Template
	email   *htmltemplate.Template
	sms     *texttemplate.Template
	chat    *texttemplate.Template
}

func mustEvent(name, subject, email, sms, chat string) eventTemplates {
	return eventTemplates{
		subject: texttemplate.Must(texttemplate.New(name + ".subject").Parse(subject)),
		email:   htmltemplate.Must(htmltemplate.New(name + ".email").Parse(email)),
		sms:     texttemplate.Must(texttemplate.New(name + ".sms").Parse(sms)),
		chat:    texttemplate.Must(texttemplate.New(name + ".chat").Parse(chat)),
	}
}

// templates is the renderer's dispatch table. The event set is closed;
// extending it means adding an entry here and recompiling.
var templates = map[notification.EventType]eventTemplates{
	notification.EventOrderPaid: mustEvent("order_paid",
		"[Sub010] 주문 결제가 완료되었습니다 (#{{.OrderID}})",
		`<p>{{.CustomerName}}님, 안녕하세요.</p>
<p>주문 <strong>#{{.OrderID}}</strong> 결제가 완료되었습니다.</p>
<p>주문 내역: {{.ItemSummary}}<br>결제 금액: {{.TotalAmount}}원</p>
<p>Sub010 드림</p>`,
		"[Sub010] {{.CustomerName}}님, 주문 #{{.OrderID}} 결제가 완료되었습니다. 결제 금액 {{.TotalAmount}}원",
		"결제 완료: 주문 #{{.OrderID}} / {{.CustomerName}} / {{.TotalAmount}}원"),

	notification.EventOrderCanceled: mustEvent("order_canceled",
		"[Sub010] 주문이 취소되었습니다 (#{{.OrderID}})",
		`<p>{{.CustomerName}}님, 안녕하세요.</p>
<p>주문 <strong>#{{.OrderID}}</strong>이(가) 취소되었습니다.</p>
<p>환불은 결제 수단에 따라 3~5영업일이 소요될 수 있습니다.</p>
<p>Sub010 드림</p>`,
		"[Sub010] {{.CustomerName}}님, 주문 #{{.OrderID}}이(가) 취소되었습니다.",
		"주문 취소: #{{.OrderID}} / {{.CustomerName}}"),

	notification.EventStringingStatusUpdated: mustEvent("stringing_status_updated",
		"[Sub010] 스트링 장착 신청 상태 안내 (#{{.ApplicationID}})",
		`<p>{{.CustomerName}}님, 안녕하세요.</p>
<p>스트링 장착 신청 <strong>#{{.ApplicationID}}</strong>의 상태가
<strong>{{.StatusLabel}}</strong>(으)로 변경되었습니다.</p>
{{if .RacketName}}<p>라켓: {{.RacketName}}{{if .StringName}} / 스트링: {{.StringName}}{{end}}</p>{{end}}
<p>Sub010 드림</p>`,
		"[Sub010] 스트링 장착 신청 #{{.ApplicationID}} 상태가 '{{.StatusLabel}}'(으)로 변경되었습니다.",
		"스트링 신청 상태 변경: #{{.ApplicationID}} → {{.StatusLabel}} ({{.CustomerName}})"),

	notification.EventRentalReturned: mustEvent("rental_returned",
		"[Sub010] 라켓 대여 반납이 확인되었습니다 (#{{.RentalID}})",
		`<p>{{.CustomerName}}님, 안녕하세요.</p>
<p>대여하신 <strong>{{.RacketName}}</strong>의 반납이 확인되었습니다.</p>
<p>이용해 주셔서 감사합니다.</p>
<p>Sub010 드림</p>`,
		"[Sub010] {{.CustomerName}}님, 대여하신 {{.RacketName}} 반납이 확인되었습니다.",
		"대여 반납 확인: #{{.RentalID}} / {{.RacketName}} / {{.CustomerName}}"),

	notification.EventRentalOverdue: mustEvent("rental_overdue",
		"[Sub010] 라켓 대여 반납 기한 안내 (#{{.RentalID}})",
		`<p>{{.CustomerName}}님, 안녕하세요.</p>
<p>대여하신 <strong>{{.RacketName}}</strong>의 반납 기한({{.DueDate}})이 지났습니다.</p>
<p>가까운 시일 내 반납 부탁드립니다.</p>
<p>Sub010 드림</p>`,
		"[Sub010] {{.CustomerName}}님, 대여하신 {{.RacketName}} 반납 기한({{.DueDate}})이 지났습니다.",
		"대여 연체: #{{.RentalID}} / {{.RacketName}} / {{.CustomerName}} (기한 {{.DueDate}})"),
}
