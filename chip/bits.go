package chip

// Bit masks shared by every USART unit (n omitted from the datasheet names).
const (
	// UCSRnA
	UCSRA_RXC  = 0x80 // receive complete
	UCSRA_TXC  = 0x40 // transmit complete (write one to clear)
	UCSRA_UDRE = 0x20 // data register empty
	UCSRA_FE   = 0x10 // frame error
	UCSRA_DOR  = 0x08 // data overrun
	UCSRA_UPE  = 0x04 // parity error
	UCSRA_U2X  = 0x02 // double transmission speed
	UCSRA_MPCM = 0x01 // multi-processor communication mode

	// UCSRnB
	UCSRB_RXCIE = 0x80
	UCSRB_TXCIE = 0x40
	UCSRB_UDRIE = 0x20
	UCSRB_RXEN  = 0x10
	UCSRB_TXEN  = 0x08
	UCSRB_UCSZ2 = 0x04
	UCSRB_RXB8  = 0x02
	UCSRB_TXB8  = 0x01

	// UCSRnC
	UCSRC_UMSEL1 = 0x80
	UCSRC_UMSEL0 = 0x40
	UCSRC_UPM1   = 0x20
	UCSRC_UPM0   = 0x10
	UCSRC_USBS   = 0x08
	UCSRC_UCSZ1  = 0x04
	UCSRC_UCSZ0  = 0x02
	UCSRC_UCPOL  = 0x01

	// UBRRnH carries divisor bits 11..8.
	UBRRH_MASK = 0x0F
)

// TWI bit masks.
const (
	TWCR_TWINT = 0x80
	TWCR_TWEA  = 0x40
	TWCR_TWSTA = 0x20
	TWCR_TWSTO = 0x10
	TWCR_TWWC  = 0x08
	TWCR_TWEN  = 0x04
	TWCR_TWIE  = 0x01

	TWSR_STATUS = 0xF8 // TWS7..TWS3
	TWSR_TWPS   = 0x03 // prescaler select
)

// System register bits.
const (
	SREG_I = 0x80

	WDTCSR_WDIF = 0x80
	WDTCSR_WDIE = 0x40
	WDTCSR_WDP3 = 0x20
	WDTCSR_WDCE = 0x10
	WDTCSR_WDE  = 0x08
	WDTCSR_WDP  = 0x07 // WDP2..WDP0

	MCUSR_WDRF = 0x08

	SMCR_SM = 0x0E // SM2..SM0
	SMCR_SE = 0x01

	CLKPR_CLKPCE = 0x80
	CLKPR_CLKPS  = 0x0F
)
