package engine

import (
	"fmt"
	"time"

	"github.com/cvt-care/support-bot/internal/models"
)

// Customer-facing texts. Tone and wording follow the CVT customer-care
// scripts; staff-side control texts keep the same register.

const msgWelcome = "Xin chào Quý khách.\n" +
	"Cảm ơn Quý khách đã tin tưởng sử dụng dịch vụ của CVT.\n" +
	"Nếu Quý khách cần hỗ trợ hoặc có bất kỳ vấn đề nào cần trao đổi, vui lòng để lại tin nhắn tại đây. " +
	"Đội ngũ tư vấn sẽ theo dõi và phản hồi Quý khách trong thời gian sớm nhất có thể ạ."

const msgGreeting = "Xin chào Quý khách! 👋\n" +
	"Cảm ơn Quý khách đã liên hệ với CVT.\n" +
	"Quý khách vui lòng để lại nội dung cần hỗ trợ, đội ngũ tư vấn sẽ phản hồi ngay ạ."

const msgOutOfHoursBody = "Cảm ơn Quý khách đã liên hệ với CVT.\n" +
	"Chúng tôi sẽ phản hồi trong thời gian sớm nhất.\n" +
	"🕐 Giờ làm việc: 8h30 – 17h00 (Thứ 2 đến Thứ 7)\n" +
	"Chủ nhật và ngày lễ: Nghỉ\n" +
	"Trong thời gian ngoài giờ, Quý khách vẫn có thể để lại tin nhắn – " +
	"chúng tôi sẽ phản hồi ngay khi làm việc trở lại."

const msgOutOfHoursReminder = "🕐 Hiện tại ngoài giờ làm việc. " +
	"CVT đã ghi nhận tin nhắn của Quý khách và sẽ phản hồi ngay khi làm việc trở lại ạ."

const msgFollowUp = "\nBộ phận Dịch vụ khách hàng sẽ xem xét và phản hồi trong thời gian sớm nhất.\n" +
	"Cảm ơn Quý khách đã tin tưởng và lựa chọn dịch vụ của chúng tôi."

const msgClaimPrompt = "📨 Cuộc hội thoại đang chờ nhân viên tiếp nhận.\n" +
	"Nhân viên CVT vui lòng nhấn nút bên dưới để tiếp nhận hỗ trợ Quý khách."

const msgClaimRejected = "Chỉ nhân viên CVT mới có thể tiếp nhận hội thoại này."

const msgClaimStale = "Hội thoại này không còn chờ tiếp nhận."

const msgClaimAck = "Bạn đã tiếp nhận hội thoại."

func outOfHoursNotice(slot models.TimeSlot) string {
	switch slot {
	case models.SlotEarlyEvening:
		return "🎉 Xin chào Quý khách!\nCVT vừa kết thúc giờ làm việc hôm nay.\n" + msgOutOfHoursBody
	default:
		return "🎉 Xin chào Quý khách!\n" + msgOutOfHoursBody
	}
}

func claimedNotice(staffName string) string {
	return fmt.Sprintf("👩‍💼 Nhân viên %s đã tiếp nhận hội thoại và sẽ hỗ trợ Quý khách ngay ạ.", staffName)
}

func idleClosedNotice() string {
	return "✅ Phiên hỗ trợ đã tạm kết thúc do không có hoạt động mới.\n" +
		"Nếu Quý khách cần hỗ trợ thêm, vui lòng để lại tin nhắn tại đây ạ."
}

func receipt(ev models.Event) string {
	if ev.Attachment == nil {
		return "✅ CVT đã nhận được tin nhắn của quý khách." + msgFollowUp
	}

	a := ev.Attachment
	switch a.Kind {
	case models.AttachmentPhoto:
		return "✅ CVT đã nhận được hình ảnh của quý khách." + msgFollowUp
	case models.AttachmentDocument:
		return fmt.Sprintf("✅ CVT đã nhận được tài liệu của quý khách.\n📄 Tên file: %s", a.FileName) + msgFollowUp
	case models.AttachmentVideo:
		return fmt.Sprintf("✅ CVT đã nhận được video của quý khách.\n⏱ Thời lượng: %s", formatDuration(a.Duration)) + msgFollowUp
	case models.AttachmentVoice:
		return fmt.Sprintf("✅ CVT đã nhận được tin nhắn thoại của quý khách.\n⏱ Thời lượng: %s", formatDuration(a.Duration)) + msgFollowUp
	default:
		return "✅ CVT đã nhận được tin nhắn của quý khách." + msgFollowUp
	}
}

func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
